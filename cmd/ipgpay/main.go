package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"ipgpay-client/internal/config"
	"ipgpay-client/internal/logger"
	"ipgpay-client/internal/payment"
)

const usage = `usage: ipgpay <command> [flags]

commands:
  settle   capture an authorised order
  credit   refund a settled order
  void     cancel an order before settlement
  query    fetch the state of an order
  form     prepare (or -submit) a hosted payment form
  listen   serve the gateway notification endpoint`

var errUsage = errors.New(usage)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger.Init(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, cfg.NewClient(), os.Args[1:], os.Stdout)
	stop()

	if err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
		} else {
			logger.L().Error("Command failed", zap.String("category", errorCategory(err)), zap.Error(err))
		}
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

func run(ctx context.Context, cfg *config.Config, client *payment.Client, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "settle":
		return runSettle(ctx, client, rest, out)
	case "credit":
		return runCredit(ctx, client, rest, out)
	case "void":
		return runVoid(ctx, client, rest, out)
	case "query":
		return runQuery(ctx, client, rest, out)
	case "form":
		return runForm(ctx, cfg, client, rest, out)
	case "listen":
		return runListen(ctx, cfg, rest)
	case "help", "-h", "--help":
		fmt.Fprintln(out, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// errorCategory names the failure class for logs and scripts.
func errorCategory(err error) string {
	var (
		cerr *payment.ConfigurationError
		ierr *payment.InvalidRequestError
		terr *payment.TransportError
		derr *payment.DecodingError
	)
	switch {
	case errors.As(err, &cerr):
		return "configuration"
	case errors.As(err, &ierr):
		return "invalid_request"
	case errors.As(err, &terr):
		return "transport"
	case errors.As(err, &derr):
		return "decoding"
	case errors.Is(err, errUsage):
		return "usage"
	default:
		return "internal"
	}
}
