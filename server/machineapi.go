package meticd

import (
	"fmt"
	"log/slog"

	Mt "github.com/meticai/meticd/types"
)

/*

	JSON operations against the machine's local API.

	The telemetry feed is plaintext KV (see poller.go), everything
	else the firmware serves is JSON: the profiles stored on the
	machine, loading one into the active slot, start and stop.

*/

// ListMachineProfilesWithClient fetches the profiles stored on a machine
func ListMachineProfilesWithClient(m *Machine, c HTTPClient) ([]Mt.Profile, error) {
	var profiles []Mt.Profile
	url := UrlCat(m.BaseURL, "/api/v1/profile/list")

	if err := FetchJSONWithClient(url, &profiles, c); err != nil {
		return nil, fmt.Errorf("could not list machine profiles: %w", err)
	}
	return profiles, nil
}

func ListMachineProfiles(m *Machine) ([]Mt.Profile, error) {
	return ListMachineProfilesWithClient(m, sharedHTTPClient)
}

// LoadProfileWithClient pushes a profile into the machine's active slot
func LoadProfileWithClient(m *Machine, p *Mt.Profile, c HTTPClient) error {
	url := UrlCat(m.BaseURL, "/api/v1/profile/load")

	if err := PostJSONWithClient(url, p, c); err != nil {
		return fmt.Errorf("could not load profile to machine: %w", err)
	}

	m.MU.Lock()
	m.Profile = p.Name
	m.MU.Unlock()

	slog.Info("Profile loaded to machine",
		slog.String("Machine", m.ID),
		slog.String("Profile", p.Name))
	return nil
}

func LoadProfile(m *Machine, p *Mt.Profile) error {
	return LoadProfileWithClient(m, p, sharedHTTPClient)
}

// StartBrewWithClient asks the machine to begin the loaded profile
func StartBrewWithClient(m *Machine, c HTTPClient) error {
	url := UrlCat(m.BaseURL, "/api/v1/action/start")
	if err := PostJSONWithClient(url, struct{}{}, c); err != nil {
		return fmt.Errorf("could not start brew: %w", err)
	}
	slog.Info("Brew started", slog.String("Machine", m.ID))
	return nil
}

func StartBrew(m *Machine) error {
	return StartBrewWithClient(m, sharedHTTPClient)
}

// StopBrewWithClient aborts the running extraction
func StopBrewWithClient(m *Machine, c HTTPClient) error {
	url := UrlCat(m.BaseURL, "/api/v1/action/stop")
	if err := PostJSONWithClient(url, struct{}{}, c); err != nil {
		return fmt.Errorf("could not stop brew: %w", err)
	}
	slog.Info("Brew stopped", slog.String("Machine", m.ID))
	return nil
}

func StopBrew(m *Machine) error {
	return StopBrewWithClient(m, sharedHTTPClient)
}
