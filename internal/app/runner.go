package app

import (
	"context"

	"github.com/spf13/pflag"
)

// ICommand represents a runnable command in the application layer.
type ICommand interface {
	Name() string
	Desc() string
	Init(f *pflag.FlagSet)
	ParseArgs(args []string) error
	PreRun(ctx context.Context) error
	Run(ctx context.Context) error
	PostRun(ctx context.Context) error
}
