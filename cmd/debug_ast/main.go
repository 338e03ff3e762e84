package main

import (
	"fmt"
	"os"

	"github.com/shopware/php-analyser/internal/ast"
	"github.com/shopware/php-analyser/internal/php"
	treesitterhelper "github.com/shopware/php-analyser/internal/tree_sitter_helper"
	"github.com/spf13/cobra"
)

func main() {
	var expression, namespace string

	rootCmd := &cobra.Command{
		Use:   "debug_ast [file.php]",
		Short: "Print the syntax tree of a PHP file or the expression tree of a single expression",
		Example: `  debug_ast src/Entity/Product.php
  debug_ast -e '$a instanceof Foo && $a->bar' --namespace App`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if expression != "" {
				expr, err := php.ParseExpression(expression, namespace, nil)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%T\n%s\n", expr, ast.Print(expr))
				return nil
			}

			if len(args) == 0 {
				return fmt.Errorf("either a file or --expression is required")
			}
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			parser, err := php.NewParser()
			if err != nil {
				return err
			}
			defer parser.Close()

			tree := parser.Parse(content)
			if tree == nil {
				return fmt.Errorf("failed to parse %s", args[0])
			}
			defer tree.Close()

			fmt.Fprintf(out, "Analyzing AST for file: %s\n\n", args[0])
			treesitterhelper.PrintAllNodes(out, tree.RootNode(), content, "")
			return nil
		},
	}
	rootCmd.Flags().StringVarP(&expression, "expression", "e", "", "PHP expression to convert")
	rootCmd.Flags().StringVar(&namespace, "namespace", "", "namespace the expression is written in")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
