package handlers

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var trendingInterests []string

var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "Show the most-indexed article categories",
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

		topics := index.Trending(trendingInterests)
		if len(topics) == 0 {
			fmt.Println("No indexed articles yet.")
			return nil
		}

		fmt.Println(headerStyle.Render("Trending topics"))
		for i, topic := range topics {
			fmt.Printf("%2d. %s (%d articles)\n", i+1, topic.Category, topic.Count)
		}
		return nil
	},
}

func init() {
	trendingCmd.Flags().StringSliceVar(&trendingInterests, "interests", nil, "restrict to these interest tags")
	rootCmd.AddCommand(trendingCmd)
}
