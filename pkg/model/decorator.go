package model

// Decorator adjusts a form definition before it is persisted or exported.
type Decorator interface {
	Decorate(*FormConfig) error
}

// DecoratorFunc adapts a function into a Decorator.
type DecoratorFunc func(*FormConfig) error

// Decorate calls the underlying function.
func (fn DecoratorFunc) Decorate(form *FormConfig) error {
	return fn(form)
}

// ApplyDecorators runs each decorator in order, stopping at the first error.
// Nil decorators are skipped.
func ApplyDecorators(form *FormConfig, decorators ...Decorator) error {
	for _, decorator := range decorators {
		if decorator == nil {
			continue
		}
		if err := decorator.Decorate(form); err != nil {
			return err
		}
	}
	return nil
}
