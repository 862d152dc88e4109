// Package custom shows how extensions plug into the storefront: a CLI
// command, a cron job and a root route, all registered from init().
package custom

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"storefront.GO/api"
	"storefront.GO/cmd"
	"storefront.GO/config"
	"storefront.GO/cron"
	"storefront.GO/service/commerce"
)

// WarmCategories drops the cached category lists and loads them again,
// sub categories included.
func WarmCategories(ctx context.Context, client *commerce.Client) (int, error) {
	client.InvalidateCategories()
	mains, err := client.MainCategories(ctx)
	if err != nil {
		return 0, err
	}
	n := len(mains)
	for _, m := range mains {
		subs, err := client.SubCategories(ctx, m.Code)
		if err != nil {
			return n, err
		}
		n += len(subs)
	}
	return n, nil
}

func init() {
	cmd.Register(&cobra.Command{
		Use:   "custom:categories",
		Short: "Print the category tree",
		RunE: func(c *cobra.Command, args []string) error {
			client := commerce.NewFromConfig(config.App())
			mains, err := client.MainCategories(c.Context())
			if err != nil {
				return err
			}
			for _, m := range mains {
				fmt.Fprintf(c.OutOrStdout(), "%s %s\n", m.Code, m.Name)
				subs, err := client.SubCategories(c.Context(), m.Code)
				if err != nil {
					return err
				}
				for _, s := range subs {
					count := 0
					if s.Count != nil {
						count = *s.Count
					}
					fmt.Fprintf(c.OutOrStdout(), "  %s %s (%d)\n", s.Code, s.Name, count)
				}
			}
			return nil
		},
	})

	cron.Register("catalogwarm", "@every 10m", "refresh the shared category cache", func(args ...string) {
		config.InitRedis()
		n, err := WarmCategories(context.Background(), commerce.NewFromConfig(config.App()))
		if err != nil {
			log.Printf("[CRON] action=catalogwarm msg=%v", err)
			return
		}
		log.Printf("[CRON] action=catalogwarm categories=%d", n)
	})

	api.RegisterGET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}
