package orders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"orderbot/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

var client = resty.New()

func init() {
	client.SetTimeout(time.Second * 30)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	restyutil.InstrumentClient(client, "orders/fetch")
}

// Fetch downloads the orders CSV to dest, overwriting any existing
// copy.
func Fetch(ctx context.Context, url, dest string) error {
	slog.InfoContext(ctx, "downloading orders file", "url", url, "dest", dest)

	res, err := client.R().
		SetContext(ctx).
		SetOutput(dest).
		Get(url)
	if err != nil {
		return fmt.Errorf("download orders file: %w", err)
	}
	if res.StatusCode() >= 400 {
		return fmt.Errorf("download orders file: unexpected status %s", res.Status())
	}
	return nil
}
