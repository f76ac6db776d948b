package middleware

import (
	"context"
	"errors"
	"fmt"

	"staybook/internal/app/commands"
	"staybook/internal/app/queries"
)

// ErrValidation marks rejected input; the HTTP layer maps it to 400/422.
var ErrValidation = errors.New("validation failed")

// Validatable messages check their own shape before reaching a handler.
type Validatable interface {
	Validate() error
}

func Validation() CommandMiddleware {
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := validate(cmd); err != nil {
				return nil, err
			}
			return nextFn(ctx, cmd)
		})
	}
}

func QueryValidation() QueryMiddleware {
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := validate(q); err != nil {
				return nil, err
			}
			return nextFn(ctx, q)
		})
	}
}

func validate(message any) error {
	v, ok := message.(Validatable)
	if !ok {
		return nil
	}
	if err := v.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}
