package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/snapledger/snapledger/internal/analysis"
	"github.com/snapledger/snapledger/internal/common"
	"github.com/snapledger/snapledger/internal/batch"
	"github.com/snapledger/snapledger/internal/capture"
	"github.com/snapledger/snapledger/internal/model"
	"github.com/snapledger/snapledger/internal/service"
	"github.com/snapledger/snapledger/internal/session"
	"github.com/snapledger/snapledger/internal/storage"
	"github.com/snapledger/snapledger/internal/tui"
)

func scanCmd() *cobra.Command {
	var (
		autoAccept bool
		workers    int
	)

	cmd := &cobra.Command{
		Use:   "scan [image files...]",
		Short: "Analyze receipt images and review the results",
		Long: `Scan photographs receipts into transactions. One image runs in single
mode; several run as a batch analyzed concurrently. After analysis an
interactive review screen opens unless --yes commits everything that
qualified for quick save.`,
		Args: cobra.RangeArgs(1, capture.MaxImages),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.Context(), args, autoAccept, workers)
		},
	}

	cmd.Flags().BoolVar(&autoAccept, "yes", false, "commit all quick-save receipts without review")
	cmd.Flags().IntVar(&workers, "workers", 2, "concurrent analysis requests")

	return cmd
}

func runScan(ctx context.Context, paths []string, autoAccept bool, workers int) error {
	path, err := dbPath()
	if err != nil {
		return err
	}

	store, err := storage.NewSQLiteStore(path)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate storage: %w", err)
	}

	gateway, closeGateway, err := buildGateway(ctx)
	if err != nil {
		return err
	}
	defer closeGateway()

	mode := session.ModeSingle
	if len(paths) > 1 {
		mode = session.ModeBatch
	}

	buffer := capture.NewBuffer(capture.MaxImages)
	receipts := batch.NewStore(gateway, store)
	ctrl := session.NewController(buffer, receipts, gateway, session.Config{
		Mode:    mode,
		Workers: workers,
	})

	if err := ctrl.StartCapture(); err != nil {
		return err
	}

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetDescription("loading images"),
		progressbar.OptionClearOnFinish())
	for _, imagePath := range paths {
		data, readErr := os.ReadFile(imagePath)
		if readErr != nil {
			return fmt.Errorf("failed to read %s: %w", imagePath, readErr)
		}
		if imgErr := ctrl.ImageReady(ctx, model.NewCapturedImage(data)); imgErr != nil {
			return common.NewUserError(fmt.Sprintf("could not add %s to the batch", imagePath), imgErr)
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	if mode == session.ModeBatch {
		if err := ctrl.FinalizeBatch(ctx); err != nil {
			return err
		}
	}

	if !autoAccept {
		return tui.Run(ctx, ctrl)
	}

	if err := waitForReview(ctx, ctrl); err != nil {
		return err
	}

	if err := ctrl.UserAccepts(ctx); err != nil {
		fmt.Fprintln(os.Stderr, common.NewUserError("some receipts could not be committed", err))
	}

	remaining := ctrl.Store().Receipts()
	if len(remaining) == 0 {
		fmt.Println("all receipts committed")
		return nil
	}

	fmt.Printf("%d receipt(s) need attention:\n", len(remaining))
	for i, receipt := range remaining {
		detail := receipt.Transaction.Merchant
		if receipt.Error != "" {
			detail = receipt.Error
		}
		fmt.Printf("  %d. [%s] %s\n", i+1, receipt.Status, detail)
	}
	fmt.Println("run without --yes to review them interactively")
	return nil
}

// waitForReview blocks until analysis of the whole batch has resolved.
func waitForReview(ctx context.Context, ctrl *session.Controller) error {
	reviewing := make(chan struct{}, 1)
	ctrl.Subscribe(func(snapshot session.Snapshot) {
		if snapshot.Phase == session.PhaseReviewing {
			select {
			case reviewing <- struct{}{}:
			default:
			}
		}
	})

	// The subscription can miss a transition that happened before it
	// was registered.
	if ctrl.Phase() == session.PhaseReviewing {
		return nil
	}

	select {
	case <-reviewing:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// buildGateway assembles the analysis gateway stack: Gemini wrapped in
// retries, wrapped in a content-hash cache.
func buildGateway(ctx context.Context) (service.AnalysisGateway, func(), error) {
	apiKey := viper.GetString("analysis.api_key")
	gemini, err := analysis.NewGeminiGateway(ctx, apiKey, viper.GetString("analysis.model"))
	if err != nil {
		return nil, nil, err
	}

	retrying := analysis.NewRetryingGateway(gemini, service.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
	})
	cached := analysis.NewCachingGateway(retrying, viper.GetDuration("analysis.cache_ttl"))

	return cached, func() { _ = gemini.Close() }, nil
}
