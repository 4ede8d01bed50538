package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/jafarshop/returnsapi/internal/config"
	"github.com/jafarshop/returnsapi/internal/domain"
	"github.com/jafarshop/returnsapi/internal/repository/postgres"
	"github.com/jafarshop/returnsapi/pkg/errors"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/find-return/main.go <return-number>")
		fmt.Println("Example: go run cmd/find-return/main.go RET-20250101120000000-1A2B3C4D")
		os.Exit(1)
	}

	returnNumber := strings.TrimSpace(os.Args[1])

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repos := postgres.NewRepositories(db, logger)
	ctx := context.Background()

	req, err := repos.ReturnRequest.GetByReturnNumber(ctx, returnNumber)
	if err != nil {
		var notFound *errors.ErrNotFound
		if errors.As(err, &notFound) {
			fmt.Printf("Return %s not found\n", returnNumber)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Failed to load return: %v\n", err)
		os.Exit(1)
	}

	items, err := repos.ReturnItem.GetByReturnRequestID(ctx, req.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load return items: %v\n", err)
		os.Exit(1)
	}

	history, err := repos.StatusHistory.ListByReturnRequestID(ctx, req.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load status history: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Return:   %s (%s)\n", req.ReturnNumber, req.ID)
	fmt.Printf("Order:    %s\n", req.OrderID)
	fmt.Printf("Customer: %s\n", req.CustomerID)
	fmt.Printf("Status:   %s\n", req.Status)
	fmt.Printf("Reason:   %s\n", req.Reason)
	fmt.Printf("Original: %s\n", req.OriginalOrderAmount.StringFixed(2))
	if req.FinalRefundAmount != nil {
		fmt.Printf("Refund:   %s\n", req.FinalRefundAmount.StringFixed(2))
	}

	fmt.Printf("\nItems:\n")
	var inspected []domain.ItemRefund
	for _, item := range items {
		fmt.Printf("  %-30s x%d  %s", item.ProductName, item.Quantity, item.TotalPrice.StringFixed(2))
		if item.ConditionOnReturn != nil {
			fmt.Printf("  [%s]", *item.ConditionOnReturn)
			if refund, err := domain.CalculateItemRefund(item.TotalPrice, *item.ConditionOnReturn); err == nil {
				inspected = append(inspected, refund)
			}
		}
		fmt.Println()
	}

	if len(inspected) == len(items) && len(items) > 0 {
		calc := domain.CalculateRefund(inspected)
		fmt.Printf("\nRefund calculation:\n")
		fmt.Printf("  Original:  %s\n", calc.OriginalAmount.StringFixed(2))
		fmt.Printf("  Deduction: %s\n", calc.DeductionAmount.StringFixed(2))
		fmt.Printf("  Refund:    %s (%d paise)\n", calc.ApprovedAmount.StringFixed(2), calc.AmountInPaise())
	}

	fmt.Printf("\nHistory:\n")
	for _, entry := range history {
		from := "-"
		if entry.FromStatus != nil {
			from = string(*entry.FromStatus)
		}
		fmt.Printf("  %s  %s -> %s  by %s\n", entry.CreatedAt.Format("2006-01-02 15:04"), from, entry.ToStatus, entry.ChangedBy)
	}
}
