package osv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/osv-scanner/pkg/models"
	"github.com/hashicorp/go-multierror"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/refupdate/internal/domain/entities"
	"github.com/rios0rios0/refupdate/internal/domain/repositories"
)

const (
	introducedFromStart = "0"
	fetchTimeout        = 30 * time.Second
)

// OSVAdvisoryRepository reads advisories in the OSV schema from files or URLs.
type OSVAdvisoryRepository struct {
	httpClient *http.Client
}

// NewOSVAdvisoryRepository creates an OSV advisory loader.
func NewOSVAdvisoryRepository() repositories.AdvisoryRepository {
	return &OSVAdvisoryRepository{httpClient: &http.Client{Timeout: fetchTimeout}}
}

// LoadAdvisories reads every source. A source may hold one vulnerability, a
// JSON array of them, or an object with a "vulns" array. Sources that fail
// are reported together; advisories from the others are still returned.
func (it *OSVAdvisoryRepository) LoadAdvisories(
	ctx context.Context,
	sources []string,
) ([]entities.SecurityAdvisory, error) {
	var advisories []entities.SecurityAdvisory
	var errs *multierror.Error

	for _, source := range sources {
		data, err := it.read(ctx, source)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}

		vulnerabilities, err := decodeVulnerabilities(data)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("failed to parse advisories from %s: %w", source, err))
			continue
		}

		for _, vulnerability := range vulnerabilities {
			advisories = append(advisories, ToAdvisories(vulnerability)...)
		}
		logger.Debugf("Loaded %d vulnerabilities from %s", len(vulnerabilities), source)
	}

	return advisories, errs.ErrorOrNil()
}

func (it *OSVAdvisoryRepository) read(ctx context.Context, source string) ([]byte, error) {
	if !strings.HasPrefix(source, "https://") && !strings.HasPrefix(source, "http://") {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("failed to read advisories file %q: %w", source, err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := it.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch advisories from %s: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &entities.RemoteStatusError{
			Operation:  "fetch advisories from " + source,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}
	return io.ReadAll(resp.Body)
}

func decodeVulnerabilities(data []byte) ([]models.Vulnerability, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var list []models.Vulnerability
		err := json.Unmarshal(trimmed, &list)
		return list, err
	}

	var wrapped struct {
		Vulns []models.Vulnerability `json:"vulns"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err == nil && len(wrapped.Vulns) > 0 {
		return wrapped.Vulns, nil
	}

	var single models.Vulnerability
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, err
	}
	return []models.Vulnerability{single}, nil
}

// ToAdvisories converts one OSV record into an advisory per affected package.
func ToAdvisories(vulnerability models.Vulnerability) []entities.SecurityAdvisory {
	var advisories []entities.SecurityAdvisory
	for _, affected := range vulnerability.Affected {
		ranges := affectedRanges(affected)
		if len(ranges) == 0 {
			continue
		}
		advisories = append(advisories, entities.SecurityAdvisory{
			ID:               vulnerability.ID,
			DependencyName:   affected.Package.Name,
			PackageURL:       affected.Package.Purl,
			VulnerableRanges: ranges,
		})
	}
	return advisories
}

// affectedRanges turns introduced/fixed/last_affected events and explicit
// version lists into range predicates. An interval without an upper bound
// stays open.
func affectedRanges(affected models.Affected) []entities.VersionRange {
	var expressions []string
	for _, versionRange := range affected.Ranges {
		if versionRange.Type != models.RangeSemVer && versionRange.Type != models.RangeEcosystem {
			continue
		}
		expressions = append(expressions, intervals(versionRange.Events)...)
	}
	for _, version := range affected.Versions {
		expressions = append(expressions, "= "+strings.TrimPrefix(version, "v"))
	}

	var ranges []entities.VersionRange
	for _, expression := range expressions {
		versionRange, err := entities.ParseVersionRange(expression)
		if err != nil {
			logger.Debugf("Skipping advisory range %q: %v", expression, err)
			continue
		}
		ranges = append(ranges, versionRange)
	}
	return ranges
}

func intervals(events []models.Event) []string {
	var result []string
	lower := ""
	open := false

	for _, event := range events {
		switch {
		case event.Introduced != "":
			lower = ">= " + strings.TrimPrefix(event.Introduced, "v")
			if event.Introduced == introducedFromStart {
				lower = ">= 0.0.0-0"
			}
			open = true
		case event.Fixed != "" && open:
			result = append(result, lower+", < "+strings.TrimPrefix(event.Fixed, "v"))
			open = false
		case event.LastAffected != "" && open:
			result = append(result, lower+", <= "+strings.TrimPrefix(event.LastAffected, "v"))
			open = false
		}
	}
	if open {
		result = append(result, lower)
	}
	return result
}
