package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"storefront.GO/model/entity"
	"storefront.GO/page"
)

// terminal plays the browser: prompts on stdin, toasts and navigation on stdout.
type terminal struct {
	in  *bufio.Reader
	out io.Writer
	yes bool

	navigated []string
}

func newTerminal(c *cobra.Command) *terminal {
	return &terminal{in: bufio.NewReader(c.InOrStdin()), out: c.OutOrStdout(), yes: flagYes}
}

func (t *terminal) Confirm(msg string) bool {
	if t.yes {
		fmt.Fprintf(t.out, "%s [y/N] y\n", msg)
		return true
	}
	fmt.Fprintf(t.out, "%s [y/N] ", msg)
	line, _ := t.in.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func (t *terminal) Notify(level page.Level, msg string) {
	fmt.Fprintf(t.out, "[%s] %s\n", level, msg)
}

func (t *terminal) Navigate(url string) {
	t.navigated = append(t.navigated, url)
	fmt.Fprintf(t.out, "-> %s\n", url)
}

// Redirect prints the gateway form instead of posting it.
func (t *terminal) Redirect(ctx context.Context, gatewayURL string, params entity.PaymentParams) error {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(t.out, "POST %s\n", gatewayURL)
	for _, k := range keys {
		fmt.Fprintf(t.out, "  %s=%s\n", k, params[k])
	}
	return nil
}
