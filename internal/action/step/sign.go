package step

import (
	"context"
	"time"

	botCtx "github.com/frikadellen/baf/internal/context"
)

// EnterSign waits for the sign editor the previous click opened and writes value on its first line.
func EnterSign(c context.Context, ctx *botCtx.Context, timeout time.Duration, value string) error {
	ctx.SetLastStep("EnterSign")
	sign, err := ctx.Stream.AwaitSign(c, timeout)
	if err != nil {
		return err
	}
	return ctx.PacketSender.UpdateSign(sign, value)
}
