package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/snapledger/snapledger/internal/model"
	"github.com/snapledger/snapledger/internal/service"
	"github.com/snapledger/snapledger/internal/storage"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "Work with committed transactions",
	}

	cmd.AddCommand(transactionsListCmd())
	return cmd
}

func transactionsListCmd() *cobra.Command {
	var (
		fromStr  string
		toStr    string
		merchant string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List committed transactions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := dbPath()
			if err != nil {
				return err
			}

			store, err := storage.NewSQLiteStore(path)
			if err != nil {
				return fmt.Errorf("failed to open storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			if err := store.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("failed to migrate storage: %w", err)
			}

			filter := service.TransactionFilter{Merchant: merchant, Limit: limit}
			if fromStr != "" {
				from, parseErr := time.Parse(model.DateLayout, fromStr)
				if parseErr != nil {
					return fmt.Errorf("invalid --from date: %w", parseErr)
				}
				filter.StartDate = &from
			}
			if toStr != "" {
				to, parseErr := time.Parse(model.DateLayout, toStr)
				if parseErr != nil {
					return fmt.Errorf("invalid --to date: %w", parseErr)
				}
				filter.EndDate = &to
			}

			txns, err := store.GetTransactions(cmd.Context(), filter)
			if err != nil {
				return err
			}

			if len(txns) == 0 {
				fmt.Println("no transactions found")
				return nil
			}

			for _, txn := range txns {
				fmt.Printf("%s  %-28s %14s  %s\n",
					txn.Date, txn.Merchant, model.FormatAmount(txn.Total, txn.Currency), txn.Category)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&fromStr, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toStr, "to", "", "end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&merchant, "merchant", "", "filter by merchant substring")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows")

	return cmd
}
