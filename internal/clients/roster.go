package clients

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/catalog"
)

const playersPath = "jugadores.php"

type RosterClient struct{ c *Client }

func NewRosterClient(c *Client) *RosterClient { return &RosterClient{c: c} }

// ListPlayers fetches the squad. Entries without a valid id are skipped.
func (rc *RosterClient) ListPlayers(ctx context.Context) ([]catalog.Player, error) {
	body, err := rc.c.getJSON(ctx, playersPath, nil)
	if err != nil {
		return nil, err
	}
	if isEmptyDocument(body) {
		return []catalog.Player{}, nil
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%s: decode roster: %w", rc.c.Name, err)
	}
	players := make([]catalog.Player, 0, len(rows))
	for _, row := range rows {
		var p catalog.Player
		if err := json.Unmarshal(row, &p); err != nil {
			rc.c.log.Debug().Err(err).Msg("skipping malformed player")
			continue
		}
		players = append(players, p)
	}
	return players, nil
}
