package serverinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// HTTPProvider fetches {host, port, token} from a configurable HTTP
// endpoint. Grounded on the http.Client{Timeout: ...} pattern used by
// other_examples' MatchaCake-bilibili_dm_lib client for its own room-info
// lookups.
type HTTPProvider struct {
	// URLTemplate is formatted with the room id via fmt.Sprintf, e.g.
	// "https://example.invalid/room/%d/danmu_info".
	URLTemplate string
	HTTPClient  *http.Client
}

// NewHTTPProvider builds an HTTPProvider with a 15s default client timeout,
// matching the teacher pack's MatchaCake client default.
func NewHTTPProvider(urlTemplate string) *HTTPProvider {
	return &HTTPProvider{
		URLTemplate: urlTemplate,
		HTTPClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

type httpEnvelope struct {
	Data struct {
		Host  string `json:"host"`
		Port  int    `json:"port"`
		Token string `json:"token"`
		UID   int64  `json:"uid"`
	} `json:"data"`
}

func (p *HTTPProvider) Resolve(ctx context.Context, roomID int64) (Credentials, error) {
	url := fmt.Sprintf(p.URLTemplate, roomID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Credentials{}, errors.Wrap(ErrCredentialUnavailable, err.Error())
	}

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return Credentials{}, errors.Wrap(ErrCredentialUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Credentials{}, errors.Wrapf(ErrCredentialUnavailable, "unexpected status %d", resp.StatusCode)
	}

	var env httpEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return Credentials{}, errors.Wrap(ErrCredentialUnavailable, err.Error())
	}

	return Credentials{
		Host:  env.Data.Host,
		Port:  env.Data.Port,
		Token: env.Data.Token,
		UID:   env.Data.UID,
	}, nil
}
