// Command debug_types prints the classes and functions of a PHP file with the types
// the analyser resolves for them.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/shopware/php-analyser/internal/broker"
	"github.com/shopware/php-analyser/internal/cache"
	"github.com/shopware/php-analyser/internal/config"
	"github.com/shopware/php-analyser/internal/php"
	"github.com/shopware/php-analyser/internal/phpdoc"
	"github.com/shopware/php-analyser/internal/reflection"
	"github.com/shopware/php-analyser/internal/reflection/annotations"
	"github.com/shopware/php-analyser/internal/reflection/crates"
	"github.com/shopware/php-analyser/internal/reflection/native"
	"github.com/shopware/php-analyser/internal/reflection/phpdefect"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("php-analyser.debug_types")

type options struct {
	configPath string
	verbose    int
	watch      bool
}

func main() {
	var opts options

	rootCmd := &cobra.Command{
		Use:   "debug_types <file.php>",
		Short: "Print the resolved types of the classes and functions in a PHP file",
		Example: `  debug_types src/Entity/Product.php
  debug_types --config phpanalyser.toml -v src/Entity/Product.php
  debug_types --watch src/Entity/Product.php`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			commonlog.Configure(1+opts.verbose, nil)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}
	rootCmd.Flags().StringVar(&opts.configPath, "config", "", "path to "+config.FileName)
	rootCmd.Flags().CountVarP(&opts.verbose, "verbose", "v", "log more, repeat for debug output")
	rootCmd.Flags().BoolVar(&opts.watch, "watch", false, "print again whenever a scanned file changes")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	if _, err := os.Stat(config.FileName); err == nil {
		return config.Load(config.FileName)
	}
	return config.Default(), nil
}

func run(ctx context.Context, out io.Writer, filePath string, opts options) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	excludes, err := cfg.Excludes()
	if err != nil {
		return err
	}
	filePath, err = filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", filePath, err)
	}

	storage, closeStorage, err := cfg.OpenCacheStorage()
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStorage(); err != nil {
			log.Warningf("failed to close cache: %v", err)
		}
	}()

	index := php.NewIndex()
	if cfg.Cache.Backend == config.BackendSQLite {
		cachePath, err := cfg.CachePath()
		if err != nil {
			return err
		}
		store, err := php.NewDeclarationStore(strings.TrimSuffix(cachePath, filepath.Ext(cachePath)) + "-declarations.db")
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		index = index.WithStore(store)
	}

	for _, root := range cfg.ScanPaths() {
		if _, err := os.Stat(root); err != nil {
			log.Infof("skipping scan path %s: %v", root, err)
			continue
		}
		if err := index.Scan(ctx, root, excludes); err != nil {
			return err
		}
	}

	parser, err := php.NewParser()
	if err != nil {
		return err
	}
	defer parser.Close()

	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	if _, err := index.AddSource(parser, filePath, content); err != nil {
		return err
	}

	a := &analysis{
		cfg:    cfg,
		index:  index,
		parser: parser,
		cache:  cache.New(storage),
	}
	if err := a.print(out, filePath); err != nil {
		return err
	}
	if !opts.watch {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, root := range cfg.ScanPaths() {
		g.Go(func() error {
			return index.Watch(ctx, root, excludes, func(changed []string) {
				log.Infof("%d file(s) changed", len(changed))
				if err := a.print(out, filePath); err != nil {
					log.Errorf("%v", err)
				}
			})
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// analysis builds a fresh broker for every print, reflections are bound to the
// declarations they were created from
type analysis struct {
	mu sync.Mutex

	cfg    *config.Config
	index  *php.Index
	parser *php.Parser
	cache  *cache.Cache
}

func (a *analysis) newBroker() *broker.Broker {
	fileHelper := broker.NewFileHelper(a.cfg.CurrentWorkingDirectory)
	namer := broker.NewAnonymousClassNameHelper(fileHelper)
	fileTypeMapper := phpdoc.NewFileTypeMapper(a.index, a.cache, namer)
	nativeExtension := native.NewClassReflectionExtension(native.NewMethodReflectionFactory(a.parser, a.cache), fileTypeMapper)

	return broker.New(broker.Options{
		Index:                     a.index,
		FileTypeMapper:            fileTypeMapper,
		FunctionReflectionFactory: native.NewFunctionReflectionFactory(a.parser, a.cache),
		AnonymousClassNamer:       namer,
		PropertiesExtensions: []reflection.PropertiesClassReflectionExtension{
			nativeExtension,
			phpdefect.NewExtension(fileTypeMapper.TypeStringResolver()),
			crates.NewExtension(a.cfg.UniversalObjectCratesClasses),
			annotations.NewPropertiesExtension(fileTypeMapper),
		},
		MethodsExtensions: []reflection.MethodsClassReflectionExtension{
			nativeExtension,
			annotations.NewMethodsExtension(fileTypeMapper),
		},
	})
}

func (a *analysis) print(out io.Writer, filePath string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	file, ok := a.index.File(filePath)
	if !ok {
		return fmt.Errorf("%s is not indexed", filePath)
	}
	b := a.newBroker()

	for _, decl := range file.Classes {
		class, err := b.GetClass(decl.Name)
		if err != nil {
			return err
		}
		printClass(out, class)
	}
	for _, decl := range file.AnonymousClasses {
		class, err := b.GetAnonymousClassReflection(decl)
		if err != nil {
			return err
		}
		printClass(out, class)
	}
	for _, decl := range file.Functions {
		function, err := b.GetFunction("\\"+decl.Name, nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "function %s\n", signature(function))
	}
	return nil
}

func printClass(out io.Writer, class *reflection.ClassReflection) {
	kind := "class"
	switch {
	case class.IsInterface():
		kind = "interface"
	case class.IsTrait():
		kind = "trait"
	case class.IsEnum():
		kind = "enum"
	}
	fmt.Fprintf(out, "%s %s (line %d)\n", kind, class.DisplayName(), class.Decl().StartLine)
	if parent := class.ParentClassName(); parent != "" {
		fmt.Fprintf(out, "  extends %s\n", parent)
	}

	for _, decl := range class.Decl().Properties {
		property, ok := class.GetProperty(decl.Name)
		if !ok {
			continue
		}
		modifier := ""
		if property.IsStatic() {
			modifier = "static "
		}
		fmt.Fprintf(out, "  %s%s $%s: %s\n", modifier, decl.Visibility, decl.Name, property.Type().Name())
	}

	for _, decl := range class.Decl().Methods {
		method, ok := class.GetMethod(decl.Name)
		if !ok {
			continue
		}
		modifier := ""
		if method.IsStatic() {
			modifier = "static "
		}
		fmt.Fprintf(out, "  %s%s %s\n", modifier, decl.Visibility, signature(method))
	}
	fmt.Fprintln(out)
}

func signature(function reflection.FunctionReflection) string {
	params := make([]string, 0, len(function.Parameters()))
	for _, param := range function.Parameters() {
		var sb strings.Builder
		sb.WriteString(param.Type().Name())
		sb.WriteString(" ")
		if param.PassedByReference() {
			sb.WriteString("&")
		}
		if param.IsVariadic() {
			sb.WriteString("...")
		}
		sb.WriteString("$" + param.Name())
		if param.IsOptional() && !param.IsVariadic() {
			sb.WriteString(" = ...")
		}
		params = append(params, sb.String())
	}

	result := fmt.Sprintf("%s(%s): %s", function.Name(), strings.Join(params, ", "), function.ReturnType().Name())
	if function.IsVariadic() && !strings.Contains(result, "...") {
		result += " [variadic]"
	}
	if throwType := function.ThrowType(); throwType != nil {
		result += " throws " + throwType.Name()
	}
	if function.IsDeprecated() {
		result += " [deprecated]"
	}
	return result
}
