package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"storefront.GO/config"
	"storefront.GO/core/errs"
	"storefront.GO/model/entity"
	"storefront.GO/page"
	"storefront.GO/urlsync"
)

var (
	searchState entity.SearchState
	searchMin   int64
	searchMax   int64
	searchURL   string

	cartSet    []string
	cartInc    []int64
	cartDec    []int64
	cartRemove []int64

	checkoutAddress  string
	checkoutStore    string
	checkoutName     string
	checkoutSubType  string
	checkoutStoreURL string

	productAdd int
	productBuy bool

	ordersCancel int64
	ordersFilter string
	wishRemove   int64
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the catalog the way the search page does",
	RunE: func(c *cobra.Command, args []string) error {
		cfg := config.App()
		st := searchState
		if searchMin >= 0 {
			st.MinPrice = entity.Price(searchMin)
		}
		if searchMax >= 0 {
			st.MaxPrice = entity.Price(searchMax)
		}
		start := searchURL
		if start == "" {
			start = urlsync.Join("/search.html", st)
		}
		hist := urlsync.NewMemoryHistory(start)
		term := newTerminal(c)
		sp := page.NewSearchPage(page.SearchOptions{
			API:       newClient(),
			View:      &textView{out: c.OutOrStdout()},
			History:   hist,
			Notifier:  term,
			Navigator: term,
			Path:      "/search.html",
			PageSize:  cfg.SearchPageSize,
			Debounce:  cfg.SearchDebounce,
			Timeout:   requestTimeout(),
		})
		defer sp.Teardown()
		err := sp.Init(c.Context())
		fmt.Fprintf(c.OutOrStdout(), "URL: %s\n", hist.Current())
		return err
	},
}

func newCartPage(c *cobra.Command, history urlsync.History, quiet bool) (*page.CartPage, *terminal) {
	term := newTerminal(c)
	cp := page.NewCartPage(page.CartOptions{
		API:        newClient(),
		View:       &textView{out: c.OutOrStdout(), quiet: quiet},
		History:    history,
		Prompter:   term,
		Notifier:   term,
		Navigator:  term,
		Redirector: term,
		GatewayURL: config.App().PaymentGatewayURL,
		Timeout:    requestTimeout(),
	})
	return cp, term
}

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Show and edit the cart",
	RunE: func(c *cobra.Command, args []string) error {
		ctx := c.Context()
		edits := len(cartSet) + len(cartInc) + len(cartDec) + len(cartRemove)
		cp, _ := newCartPage(c, nil, edits > 0)
		defer cp.Teardown()
		if err := cp.Load(ctx); err != nil {
			return err
		}
		var failed error
		keep := func(err error) {
			if err != nil && failed == nil {
				failed = err
			}
		}
		for _, kv := range cartSet {
			id, qty, ok := strings.Cut(kv, "=")
			cartID, err := strconv.ParseInt(id, 10, 64)
			if !ok || err != nil {
				return errs.Validation("cart.set", "set", "expected cartId=quantity, got "+kv)
			}
			keep(cp.InputQuantity(ctx, cartID, qty))
		}
		for _, id := range cartInc {
			keep(cp.ChangeQuantity(ctx, id, 1))
		}
		for _, id := range cartDec {
			keep(cp.ChangeQuantity(ctx, id, -1))
		}
		for _, id := range cartRemove {
			keep(cp.RemoveItem(ctx, id))
		}
		if edits > 0 {
			(&textView{out: c.OutOrStdout()}).RenderCart(cp.Store().Snapshot())
		}
		return failed
	},
}

var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Check the cart out and print the payment form",
	RunE: func(c *cobra.Command, args []string) error {
		start := checkoutStoreURL
		if start == "" {
			start = page.CartURL
		}
		cp, _ := newCartPage(c, urlsync.NewMemoryHistory(start), false)
		defer cp.Teardown()
		ctx := c.Context()
		if err := cp.Load(ctx); err != nil {
			return err
		}
		if checkoutStore != "" {
			cp.SelectStore(entity.StoreSelection{StoreID: checkoutStore, Name: checkoutName, SubType: checkoutSubType})
		}
		if checkoutAddress != "" {
			cp.SetAddress(checkoutAddress)
		}
		return cp.Checkout(ctx)
	},
}

var productCmd = &cobra.Command{
	Use:   "product <id>",
	Short: "Show a product; --add or --buy puts it in the cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return errs.Validation("product.load", "id", "Invalid product ID")
		}
		term := newTerminal(c)
		pp := page.NewProductPage(page.ProductOptions{
			API:       newClient(),
			View:      &textView{out: c.OutOrStdout()},
			Notifier:  term,
			Navigator: term,
			Timeout:   requestTimeout(),
		})
		ctx := c.Context()
		if _, err := pp.Load(ctx, id); err != nil {
			return err
		}
		switch {
		case productBuy:
			return pp.BuyNow(ctx, productAdd)
		case productAdd > 0:
			return pp.AddToCart(ctx, productAdd)
		}
		return nil
	},
}

func newMemberPage(c *cobra.Command) *page.MemberPage {
	term := newTerminal(c)
	return page.NewMemberPage(page.MemberOptions{
		API:       newClient(),
		View:      &textView{out: c.OutOrStdout()},
		Prompter:  term,
		Notifier:  term,
		Navigator: term,
	})
}

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List, filter or cancel orders",
	RunE: func(c *cobra.Command, args []string) error {
		mp := newMemberPage(c)
		ctx := c.Context()
		if err := mp.LoadOrders(ctx); err != nil {
			return err
		}
		if ordersCancel > 0 {
			return mp.CancelOrder(ctx, ordersCancel)
		}
		if ordersFilter != "" {
			mp.FilterOrders(ordersFilter)
		}
		return nil
	},
}

var wishlistCmd = &cobra.Command{
	Use:   "wishlist",
	Short: "List the wishlist or remove an entry",
	RunE: func(c *cobra.Command, args []string) error {
		mp := newMemberPage(c)
		ctx := c.Context()
		if err := mp.LoadWishlist(ctx); err != nil {
			return err
		}
		if wishRemove > 0 {
			return mp.RemoveWishlist(ctx, wishRemove)
		}
		return nil
	},
}

func init() {
	f := searchCmd.Flags()
	f.StringVar(&searchState.MainCategory, "main", "", "main category code")
	f.StringVar(&searchState.SubCategory, "sub", "", "sub category code")
	f.StringVarP(&searchState.Keyword, "keyword", "k", "", "keyword")
	f.StringVar(&searchState.Sort, "sort", entity.DefaultSort, "latest, priceAsc, priceDesc, ratingAsc or ratingDesc")
	f.IntVar(&searchState.Page, "page", 0, "zero-based page")
	f.IntVar(&searchState.Size, "size", entity.DefaultPageSize, "page size")
	f.Int64Var(&searchMin, "min", -1, "minimum price")
	f.Int64Var(&searchMax, "max", -1, "maximum price")
	f.StringVar(&searchURL, "url", "", "start from a search page URL instead of the flags")

	f = cartCmd.Flags()
	f.StringSliceVar(&cartSet, "set", nil, "set a quantity, cartId=quantity")
	f.Int64SliceVar(&cartInc, "inc", nil, "press plus on a cart line")
	f.Int64SliceVar(&cartDec, "dec", nil, "press minus on a cart line")
	f.Int64SliceVar(&cartRemove, "remove", nil, "remove a cart line")

	f = checkoutCmd.Flags()
	f.StringVar(&checkoutAddress, "address", "", "home delivery address (default: member address)")
	f.StringVar(&checkoutStore, "store", "", "convenience store id for store pickup")
	f.StringVar(&checkoutName, "store-name", "", "convenience store name")
	f.StringVar(&checkoutSubType, "store-type", "", "logistics sub type of the store")
	f.StringVar(&checkoutStoreURL, "from-url", "", "cart URL returned by the store map, e.g. /cart.html?storeId=...")

	productCmd.Flags().IntVar(&productAdd, "add", 0, "add this quantity to the cart")
	productCmd.Flags().BoolVar(&productBuy, "buy", false, "buy now: add and go to the cart")

	ordersCmd.Flags().Int64Var(&ordersCancel, "cancel", 0, "cancel the order with this id")
	ordersCmd.Flags().StringVar(&ordersFilter, "filter", "", "show only orders matching this text")
	wishlistCmd.Flags().Int64Var(&wishRemove, "remove", 0, "remove this product from the wishlist")

	rootCmd.AddCommand(searchCmd, cartCmd, checkoutCmd, productCmd, ordersCmd, wishlistCmd)
}
