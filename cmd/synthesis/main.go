// Synthesis Assets Explorer CLI
//
// Browses the Synthesis catalog backend: hierarchical categories and
// paginated, searchable asset lists, with credential persistence.
//
// Sub-commands:
//
//	synthesis login -account <name> [-password <pwd>] [-remember]
//	synthesis logout
//	synthesis whoami
//	synthesis categories -type <asset-type> [-scope Public|Private]
//	synthesis assets -type <asset-type> [-category <id>] [-pages <n>] [-search <key>]
//	synthesis search -type <asset-type> -key <keyword>
//	synthesis record -type <asset-type> -id <asset-id>
//	synthesis thumb -type <asset-type> -id <asset-id>
//	synthesis status
//	synthesis set-server -usd <base-url>
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/auth"
	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/catalog"
	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/config"
	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/explorer"
	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/logging"
	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/metrics"
	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/settings"
	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/thumbs"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "login":
		cmdLogin(args)
	case "logout":
		cmdLogout(args)
	case "whoami":
		cmdWhoami(args)
	case "categories":
		cmdCategories(args)
	case "assets":
		cmdAssets(args)
	case "search":
		cmdSearch(args)
	case "record":
		cmdRecord(args)
	case "thumb":
		cmdThumb(args)
	case "status":
		cmdStatus(args)
	case "set-server":
		cmdSetServer(args)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: synthesis <login|logout|whoami|categories|assets|search|record|thumb|status|set-server> [flags]")
}

// commonFlags registers the flags every sub-command shares.
func commonFlags(fs *flag.FlagSet) (envFile, logLevel, metricsAddr *string) {
	envFile = fs.String("env", "", "Optional .env file to load")
	logLevel = fs.String("log-level", "", "Log level override (debug, info, warn, error)")
	metricsAddr = fs.String("metrics", "", "Expose Prometheus metrics on this address")
	return
}

// setup loads configuration, initializes logging, and builds the explorer
// with its settings store and thumbnail cache.
func setup(envFile, logLevel, metricsAddr string) (*explorer.Explorer, *config.Config) {
	cfg, err := config.Load(envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading configuration: %v\n", err)
		os.Exit(1)
	}
	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}

	if err := logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: initializing logging: %v\n", err)
		os.Exit(1)
	}
	if logLevel != "" {
		logging.SetLevel(logLevel)
	}

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logging.Error("metrics listener failed", logging.Err(err))
			}
		}()
	}

	store, err := settings.Open(cfg.SettingsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: opening settings store: %v\n", err)
		os.Exit(1)
	}

	ex := explorer.New(cfg, store, nil)
	cache, err := thumbs.New(cfg.ThumbCacheDir, cfg.ThumbCacheMax, ex.Sessions())
	if err != nil {
		logging.Warn("thumbnail cache unavailable", logging.Err(err))
		return ex, cfg
	}
	ex.AttachThumbCache(cache)
	return ex, cfg
}

func cmdLogin(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	envFile, logLevel, metricsAddr := commonFlags(fs)
	account := fs.String("account", "", "Login account (required)")
	password := fs.String("password", "", "Login password (required)")
	remember := fs.Bool("remember", false, "Remember credentials for later sessions")
	fs.Parse(args)

	if *account == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "Error: -account and -password are required")
		os.Exit(1)
	}

	ex, _ := setup(*envFile, *logLevel, *metricsAddr)
	defer ex.Close()
	defer logging.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	user, err := ex.Login(ctx, *account, *password, *remember)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Login failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Logged in as %s (UserType %d, admin=%v)\n", *account, user.UserType, ex.Auth().IsAdmin())
}

func cmdLogout(args []string) {
	fs := flag.NewFlagSet("logout", flag.ExitOnError)
	envFile, logLevel, metricsAddr := commonFlags(fs)
	fs.Parse(args)

	ex, _ := setup(*envFile, *logLevel, *metricsAddr)
	defer ex.Close()
	defer logging.Sync()

	ex.Logout()
	fmt.Println("Logged out.")
}

func cmdWhoami(args []string) {
	fs := flag.NewFlagSet("whoami", flag.ExitOnError)
	envFile, logLevel, metricsAddr := commonFlags(fs)
	fs.Parse(args)

	ex, _ := setup(*envFile, *logLevel, *metricsAddr)
	defer ex.Close()
	defer logging.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	user, err := ex.LoginSaved(ctx)
	if err != nil {
		fmt.Println("Not logged in (no usable saved credentials).")
		return
	}

	fmt.Printf("Account:  %s\n", user.UserName)
	fmt.Printf("UserType: %d (admin=%v)\n", user.UserType, ex.Auth().IsAdmin())
	if exp, ok := auth.TokenExpiry(ex.Auth().Token()); ok {
		fmt.Printf("Token expires: %s\n", exp.Format(time.RFC3339))
	}
}

func cmdCategories(args []string) {
	fs := flag.NewFlagSet("categories", flag.ExitOnError)
	envFile, logLevel, metricsAddr := commonFlags(fs)
	assetType := fs.String("type", "SimReady", "Asset type id")
	scope := fs.String("scope", "Public", "Visibility scope: Public or Private")
	fs.Parse(args)

	ex, _ := setup(*envFile, *logLevel, *metricsAddr)
	defer ex.Close()
	defer logging.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ex.LoginSaved(ctx) // best effort; free endpoints serve the rest

	tree, err := ex.CategoryTree(ctx, *assetType, catalog.Scope(*scope))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if tree.Len() == 0 {
		fmt.Println("No categories found.")
		return
	}
	tree.Walk(func(n *catalog.Node, depth int) {
		for i := 0; i < depth; i++ {
			fmt.Print("  ")
		}
		fmt.Printf("%s (%s)\n", n.Name, n.ID)
	})
}

func cmdAssets(args []string) {
	fs := flag.NewFlagSet("assets", flag.ExitOnError)
	envFile, logLevel, metricsAddr := commonFlags(fs)
	assetType := fs.String("type", "SimReady", "Asset type id")
	category := fs.String("category", catalog.AllCategoryID, "Category id")
	pages := fs.Int("pages", 1, "Number of pages to load")
	search := fs.String("search", "", "Search keyword")
	fs.Parse(args)

	ex, _ := setup(*envFile, *logLevel, *metricsAddr)
	defer ex.Close()
	defer logging.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	ex.LoginSaved(ctx)

	ctrl, err := ex.Controller(*assetType)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctrl.SelectCategory(*category)
	if *search != "" {
		// One-shot CLI run: skip the keystroke debounce and search directly.
		ctrl.SetKeywordNow(*search)
	}

	for page := 1; page <= *pages; page++ {
		if err := ctrl.FetchPage(ctx, page); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading page %d: %v\n", page, err)
			os.Exit(1)
		}
		_, _, _, noMore := ctrl.PageInfo()
		if noMore {
			break
		}
	}

	items := ctrl.Items()
	_, totalPages, totalCount, _ := ctrl.PageInfo()
	fmt.Printf("%d of %d items (%d pages total)\n", len(items), totalCount, totalPages)
	for _, item := range items {
		marker := " "
		if item.IsHasUsdFile {
			marker = "*"
		}
		fmt.Printf("%s %-36s %s\n", marker, item.ID, item.Name)
	}
}

func cmdSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	envFile, logLevel, metricsAddr := commonFlags(fs)
	assetType := fs.String("type", "SimReady", "Asset type id")
	key := fs.String("key", "", "Search keyword (required)")
	fs.Parse(args)

	if *key == "" {
		fmt.Fprintln(os.Stderr, "Error: -key is required")
		os.Exit(1)
	}

	ex, _ := setup(*envFile, *logLevel, *metricsAddr)
	defer ex.Close()
	defer logging.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ex.LoginSaved(ctx)

	ctrl, err := ex.Controller(*assetType)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctrl.SetKeywordNow(*key)
	if err := ctrl.FetchPage(ctx, 1); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	items := ctrl.Items()
	_, _, totalCount, _ := ctrl.PageInfo()
	fmt.Printf("%d of %d matches for %q\n", len(items), totalCount, *key)
	for _, item := range items {
		fmt.Printf("%-36s %s\n", item.ID, item.Name)
	}
}

func cmdRecord(args []string) {
	fs := flag.NewFlagSet("record", flag.ExitOnError)
	envFile, logLevel, metricsAddr := commonFlags(fs)
	assetType := fs.String("type", "", "Asset type id (required)")
	assetID := fs.String("id", "", "Asset id (required)")
	fs.Parse(args)

	if *assetType == "" || *assetID == "" {
		fmt.Fprintln(os.Stderr, "Error: -type and -id are required")
		os.Exit(1)
	}

	ex, _ := setup(*envFile, *logLevel, *metricsAddr)
	defer ex.Close()
	defer logging.Sync()

	ex.RecordLoad(*assetType, catalog.AssetItem{ID: *assetID})
	// Give the fire-and-forget record a moment before the process exits.
	time.Sleep(2 * time.Second)
	fmt.Println("Usage record sent.")
}

func cmdThumb(args []string) {
	fs := flag.NewFlagSet("thumb", flag.ExitOnError)
	envFile, logLevel, metricsAddr := commonFlags(fs)
	assetType := fs.String("type", "", "Asset type id (required)")
	assetID := fs.String("id", "", "Asset id (required)")
	out := fs.String("out", "", "Copy the thumbnail to this path")
	fs.Parse(args)

	if *assetType == "" || *assetID == "" {
		fmt.Fprintln(os.Stderr, "Error: -type and -id are required")
		os.Exit(1)
	}

	ex, _ := setup(*envFile, *logLevel, *metricsAddr)
	defer ex.Close()
	defer logging.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	path, err := ex.FetchThumbnail(ctx, *assetType, catalog.AssetItem{ID: *assetID, MiniLogo: "remote"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *out != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			err = os.WriteFile(*out, data, 0644)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: copying thumbnail: %v\n", err)
			os.Exit(1)
		}
		path = *out
	}
	fmt.Println(path)
}

func cmdStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	envFile, logLevel, metricsAddr := commonFlags(fs)
	fs.Parse(args)

	ex, cfg := setup(*envFile, *logLevel, *metricsAddr)
	defer ex.Close()
	defer logging.Sync()

	fmt.Printf("API server:  %s\n", cfg.APIBaseURL)
	fmt.Printf("USD server:  %s\n", ex.UsdBaseURL())
	fmt.Printf("Web server:  %s\n", cfg.WebBaseURL)
	fmt.Printf("Session:     live=%v\n", ex.Sessions().Live())
	fmt.Printf("Logged in:   %v\n", ex.Auth().IsLoggedIn())
	fmt.Printf("Page size:   %d\n", cfg.PageSize)
}

func cmdSetServer(args []string) {
	fs := flag.NewFlagSet("set-server", flag.ExitOnError)
	envFile, logLevel, metricsAddr := commonFlags(fs)
	usd := fs.String("usd", "", "USD content server base URL (required)")
	fs.Parse(args)

	if *usd == "" {
		fmt.Fprintln(os.Stderr, "Error: -usd is required")
		os.Exit(1)
	}

	ex, _ := setup(*envFile, *logLevel, *metricsAddr)
	defer ex.Close()
	defer logging.Sync()

	if err := ex.SetUsdBaseURL(*usd); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("USD server set to %s\n", *usd)
}
