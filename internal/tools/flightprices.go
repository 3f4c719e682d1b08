package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ZuhaMK/Flight-AI/pkg/types"
)

// FlightPricesArgs is the JSON-decoded input for the "get_flight_prices" tool.
type FlightPricesArgs struct {
	Origin      string `json:"origin" jsonschema:"The IATA code for the departure city, e.g., 'DXB' for Dubai."`
	Destination string `json:"destination" jsonschema:"The IATA code for the arrival city, e.g., 'LON' for London."`
	Date        string `json:"date,omitempty" jsonschema:"Optional departure date, e.g. '2024-06-01'."`
}

// FlightPricesDescription is shown to the model next to the tool name.
const FlightPricesDescription = "Get current flight prices between two cities using IATA codes."

func flightPricesDefinition() types.ToolDefinition {
	return types.ToolDefinition{
		Name:        string(FlightPrices),
		Description: FlightPricesDescription,
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"origin": map[string]any{
					"type":        "string",
					"description": "The IATA code for the departure city, e.g., 'DXB' for Dubai.",
				},
				"destination": map[string]any{
					"type":        "string",
					"description": "The IATA code for the arrival city, e.g., 'LON' for London.",
				},
				"date": map[string]any{
					"type":        "string",
					"description": "Optional departure date, e.g. '2024-06-01'.",
				},
			},
			"required": []string{"origin", "destination"},
		},
	}
}

func (r *Registry) flightPricesHandler(prices PriceLookup) handler {
	return func(ctx context.Context, args string) (string, error) {
		var a FlightPricesArgs
		if err := json.Unmarshal([]byte(args), &a); err != nil {
			return "", errInvalidArgs{err}
		}
		a.Origin = strings.TrimSpace(a.Origin)
		a.Destination = strings.TrimSpace(a.Destination)
		var missing []string
		if a.Origin == "" {
			missing = append(missing, "origin")
		}
		if a.Destination == "" {
			missing = append(missing, "destination")
		}
		if len(missing) > 0 {
			return "", errInvalidArgs{fmt.Errorf("missing required parameter(s): %s", strings.Join(missing, ", "))}
		}

		if r.resolver != nil {
			if code, ok := r.resolver.Resolve(a.Origin); ok {
				a.Origin = code
			}
			if code, ok := r.resolver.Resolve(a.Destination); ok {
				a.Destination = code
			}
		}
		return prices.Prices(ctx, a.Origin, a.Destination, a.Date), nil
	}
}
