// Command ordercheck resolves one trade number against the author accounts
// configured for a group, the same way the bot does for join requests.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"afdaudit/internal/audit"
	"afdaudit/internal/domain"
	"afdaudit/internal/infra"
	"afdaudit/internal/infra/credentials"
	"afdaudit/internal/providers/afdian"
)

func main() {
	_ = godotenv.Load()

	var (
		group     = flag.Int64("group", 0, "chat group id")
		tradeNo   = flag.String("order", "", "trade number to look up")
		credsPath = flag.String("credentials", os.Getenv("CREDENTIALS_FILE"), "credential binding file")
		baseURL   = flag.String("base-url", "https://afdian.com", "donation platform base url")
		timeout   = flag.Duration("timeout", 30*time.Second, "overall lookup timeout")
	)
	flag.Parse()

	if *group == 0 || *tradeNo == "" || *credsPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := infra.NewLogger("production", os.Getenv("LOG_LEVEL"))
	creds, err := credentials.Load(*credsPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var sessions []domain.Session
	for _, acc := range creds.Accounts() {
		client, err := afdian.NewClient(afdian.Options{
			UserID:  acc.UserID,
			Token:   acc.Token,
			BaseURL: *baseURL,
			Logger:  &logger,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "account %s: %v\n", audit.MaskAccount(acc.UserID), err)
			os.Exit(1)
		}
		sessions = append(sessions, client)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	resolver := audit.NewResolver(creds, afdian.NewRegistry(sessions...), nil, logger)
	res, err := resolver.Resolve(ctx, *group, *tradeNo)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("result:  %s\n", res.Status)
	if res.AccountID != "" {
		fmt.Printf("account: %s\n", audit.MaskAccount(res.AccountID))
	}
	switch res.Status {
	case audit.LookupFound:
		fmt.Printf("order:   %s\n", audit.MaskOrder(res.Order.TradeNo))
		fmt.Printf("donor:   %s\n", res.Order.DonorID)
		fmt.Printf("amount:  %s\n", res.Order.Amount)
	case audit.LookupAmbiguous:
		fmt.Printf("matches: %d\n", res.Count)
	case audit.LookupNotFound, audit.LookupNoMatchingAccount:
		os.Exit(3)
	}
}
