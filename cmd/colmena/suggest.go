package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/apiariosamano/colmena/internal/suggestions"
)

var (
	suggestVariant string
	suggestRemote  bool
	suggestHTML    bool
)

func init() {
	suggestCmd.Flags().StringVar(&suggestVariant, "variant", string(suggestions.VariantApiarios),
		"parsing rules: apiarios, produccion or recomendaciones")
	suggestCmd.Flags().BoolVar(&suggestRemote, "remote", false, "parse on the colmenad server instead of locally")
	suggestCmd.Flags().BoolVar(&suggestHTML, "html", false, "print card descriptions as HTML fragments")
	rootCmd.AddCommand(suggestCmd)
}

// suggestCmd turns AI analysis text into suggestion cards
var suggestCmd = &cobra.Command{
	Use:   "suggest [file]",
	Short: "Extract suggestion cards from AI analysis text",
	Long: `Extract suggestion cards from the text of an AI analysis, using the same
rules as the web console.

Examples:
  # Parse a saved prediction
  colmena suggest prediccion.txt

  # Parse production analysis from stdin
  cat analisis.txt | colmena suggest - --variant produccion

  # Let the server parse it
  colmena suggest prediccion.txt --remote`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSuggest,
}

// SuggestionsRequest matches internal/http SuggestionsRequest
type SuggestionsRequest struct {
	Text    string `json:"text"`
	Variant string `json:"variant"`
}

// CardsResponse matches internal/http CardsResponse
type CardsResponse struct {
	Cards []suggestions.Card `json:"cards"`
	Count int                `json:"count"`
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	var (
		content []byte
		err     error
	)
	if len(args) == 0 || args[0] == "-" {
		content, err = io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		content, err = os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("failed to read file %s: %w", args[0], err)
		}
	}
	return string(content), nil
}

func runSuggest(cmd *cobra.Command, args []string) error {
	variant, err := suggestions.ParseVariant(suggestVariant)
	if err != nil {
		return err
	}
	text, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("no content to parse")
	}

	var cards []suggestions.Card
	if suggestRemote {
		var resp CardsResponse
		req := SuggestionsRequest{Text: text, Variant: string(variant)}
		if err := newAPIClient("").do(cmd.Context(), http.MethodPost, "/api/v1/suggestions", req, &resp); err != nil {
			return err
		}
		cards = resp.Cards
	} else {
		cards = suggestions.ForVariant(variant).Parse(text)
	}

	if suggestHTML {
		for i := range cards {
			cards[i].Description = suggestions.FormatHTML(cards[i].Description)
		}
	}
	renderCards(cmd.OutOrStdout(), cards)
	return nil
}
