package handlers

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"newsbrief/internal/core"
)

var (
	generateTo        string
	generateInterests []string
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate and deliver a newsletter for a recipient",
	RunE: func(cmd *cobra.Command, args []string) error {
		if generateTo == "" {
			return fmt.Errorf("--to is required")
		}
		if len(generateInterests) == 0 {
			return fmt.Errorf("at least one --interests value is required")
		}

		ctx := context.Background()
		p, err := buildPipeline(ctx)
		if err != nil {
			return err
		}

		summary := p.Run(ctx, generateTo, generateInterests)

		statusStyle := okStyle
		if summary.Status != core.DeliverySent {
			statusStyle = failStyle
		}

		fmt.Println(headerStyle.Render("Newsletter run complete"))
		fmt.Printf("%s %s\n", labelStyle.Render("status:"), statusStyle.Render(string(summary.Status)))
		fmt.Printf("%s %d\n", labelStyle.Render("articles:"), summary.ArticlesFound)
		if summary.Error != "" {
			fmt.Printf("%s %s\n", labelStyle.Render("last error:"), failStyle.Render(summary.Error))
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVar(&generateTo, "to", "", "recipient email address")
	generateCmd.Flags().StringSliceVar(&generateInterests, "interests", nil, "interest tags (comma separated or repeated)")
	rootCmd.AddCommand(generateCmd)
}
