package google

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// DriveFile is one Drive search hit.
type DriveFile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MimeType    string `json:"mimeType"`
	WebViewLink string `json:"webViewLink,omitempty"`
}

// SearchFiles looks up non-trashed files whose names contain the query.
// Failures surface as an error so callers can report them as tool failures.
func (s *Service) SearchFiles(ctx context.Context, query string) ([]DriveFile, error) {
	ts, err := s.auth.TokenSource(ctx)
	if err != nil {
		return nil, err
	}

	svc, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create drive client: %w", err)
	}

	escaped := strings.ReplaceAll(query, "'", `\'`)
	resp, err := svc.Files.List().
		Q(fmt.Sprintf("name contains '%s' and trashed = false", escaped)).
		Fields("files(id, name, mimeType, webViewLink)").
		PageSize(10).
		Context(ctx).
		Do()
	if err != nil {
		s.logger.Warn("drive search failed", "query", query, "error", err)
		return nil, fmt.Errorf("failed to search files: %w", err)
	}

	files := make([]DriveFile, 0, len(resp.Files))
	for _, f := range resp.Files {
		files = append(files, DriveFile{
			ID:          f.Id,
			Name:        f.Name,
			MimeType:    f.MimeType,
			WebViewLink: f.WebViewLink,
		})
	}
	return files, nil
}
