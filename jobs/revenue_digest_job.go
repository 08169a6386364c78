package jobs

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/TimmyIsANerd/chamswap/services"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const reportFolder = "revenue-reports"

type RevenueSource interface {
	GetRevenueStats(ctx context.Context, start, end *time.Time) (*services.RevenueStats, error)
	ExportTransactionsCSV(ctx context.Context, start, end *time.Time) ([]byte, error)
}

// Archiver stores a finished report and returns where it lives.
type Archiver interface {
	Archive(ctx context.Context, name string, data []byte) (string, error)
}

// RevenueDigest summarizes the previous UTC day and archives its CSV report.
type RevenueDigest struct {
	Revenue  RevenueSource
	Archiver Archiver
	Now      func() time.Time
}

func NewRevenueDigest(revenue RevenueSource, archiver Archiver) *RevenueDigest {
	return &RevenueDigest{Revenue: revenue, Archiver: archiver, Now: time.Now}
}

// previousDay returns the inclusive bounds of the UTC day before now.
func previousDay(now time.Time) (time.Time, time.Time) {
	today := now.UTC().Truncate(24 * time.Hour)
	return today.Add(-24 * time.Hour), today.Add(-time.Nanosecond)
}

func (d *RevenueDigest) Run(ctx context.Context) error {
	start, end := previousDay(d.Now())

	stats, err := d.Revenue.GetRevenueStats(ctx, &start, &end)
	if err != nil {
		return fmt.Errorf("revenue digest stats: %w", err)
	}
	log.WithFields(map[string]any{
		"day":          start.Format("2006-01-02"),
		"volume_usd":   stats.TotalUsdVolume.StringFixed(2),
		"fees_usd":     stats.TotalFeeUsd.StringFixed(2),
		"transactions": stats.TotalTransactions,
		"wallets":      stats.UniqueWallets,
	}).Info("Daily revenue digest")

	if d.Archiver == nil || stats.TotalTransactions == 0 {
		return nil
	}

	report, err := d.Revenue.ExportTransactionsCSV(ctx, &start, &end)
	if err != nil {
		return fmt.Errorf("revenue digest report: %w", err)
	}
	location, err := d.Archiver.Archive(ctx, "revenue_"+start.Format("2006-01-02")+".csv", report)
	if err != nil {
		return fmt.Errorf("archive revenue report: %w", err)
	}
	log.WithField("location", location).Info("✅ Revenue report archived")
	return nil
}

// CloudinaryArchiver uploads reports as raw assets.
type CloudinaryArchiver struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryArchiver(cloudinaryURL string) (*CloudinaryArchiver, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &CloudinaryArchiver{cld: cld}, nil
}

func (a *CloudinaryArchiver) Archive(ctx context.Context, name string, data []byte) (string, error) {
	res, err := a.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:     name,
		Folder:       reportFolder,
		ResourceType: "raw",
	})
	if err != nil {
		return "", err
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary: %s", res.Error.Message)
	}
	return res.SecureURL, nil
}
