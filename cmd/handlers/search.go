package handlers

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	searchK         int
	searchInterests []string
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search previously indexed articles by similarity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		client, err := newLLMClient(ctx)
		if err != nil {
			return err
		}
		index, err := newIndex(client)
		if err != nil {
			return err
		}

		results, err := index.Search(ctx, args[0], searchK, searchInterests)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		if len(results) == 0 {
			fmt.Println("No matching articles.")
			return nil
		}

		fmt.Println(headerStyle.Render(fmt.Sprintf("Top %d matches", len(results))))
		for i, r := range results {
			fmt.Printf("%2d. [%.3f] %s\n", i+1, r.Score, r.Title)
			fmt.Printf("    %s %s (%s)\n", labelStyle.Render(r.Category), r.URL, r.Source)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchK, "limit", "k", 10, "maximum number of results")
	searchCmd.Flags().StringSliceVar(&searchInterests, "interests", nil, "restrict results to these interest tags")
	rootCmd.AddCommand(searchCmd)
}
