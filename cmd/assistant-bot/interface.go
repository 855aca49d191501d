package main

import (
	"context"
	"io"
)

type application interface {
	Run(ctx context.Context) error
	Close() error
}

type console interface {
	RunConsole(ctx context.Context, in io.Reader, out io.Writer) error
	Close() error
}
