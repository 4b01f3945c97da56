package function

import (
	"context"
	"os"

	"github.com/LucasPickering/slumber/template"
)

func init() {
	register(template.FuncSpec{
		Name: "env",
		Fn:   envFn,
	})
}

// envFn implements `env(name)`: reads an environment variable, yielding
// an empty string if it's unset (never an error — an absent variable is
// a legitimate, common case, not a fault).
func envFn(_ context.Context, _ template.Context, args template.Arguments) (template.LazyValue, error) {
	name, err := argString(args, 0, "env")
	if err != nil {
		return template.LazyValue{}, err
	}
	return lazy(template.NewString(os.Getenv(name))), nil
}

func lazy(v template.Value) template.LazyValue {
	return template.LazyValue{Kind: template.LazyConcrete, Value: v}
}
