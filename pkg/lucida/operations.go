package lucida

import (
	"context"
	"io"
	"strings"

	"lucidaflow/pkg/errors"
	"lucidaflow/pkg/extract"
	"lucidaflow/pkg/logger"
)

// Search looks up query on service and returns at most limit tracks in page order.
// An unsupported service fails before any request is made or limiter slot is used.
// The result is never nil; on failure it carries the error and echoes query and service.
func (c *Client) Search(ctx context.Context, query, service string, limit int) (*SearchResult, error) {
	result := &SearchResult{
		Query:   query,
		Service: service,
		Tracks:  []Track{},
		Albums:  []Album{},
		Artists: []Artist{},
	}
	log := c.logger.WithFields(map[string]interface{}{"query": query, "service": service})

	provider, err := ResolveService(service)
	if err != nil {
		return searchFailed(log, result, err)
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	result.SearchURL = GetSearchURL(c.baseURL, provider, query)
	log.DebugWithFields("Searching", map[string]interface{}{"url": result.SearchURL, "limit": limit})

	page, err := c.fetchPage(ctx, result.SearchURL)
	if err != nil {
		return searchFailed(log, result, err)
	}

	tracks := c.extractor.Extract(page)
	if len(tracks) > limit {
		tracks = tracks[:limit]
	}
	result.Tracks = tracks

	log.WithField("count", len(tracks)).Info("Search completed")
	return result, nil
}

func searchFailed(log logger.Logger, result *SearchResult, err error) (*SearchResult, error) {
	log.WithError(err).Warn("Search failed")
	result.Error = err.Error()
	result.ErrorType = errors.TypeOf(err)
	return result, err
}

// TrackInfo resolves trackURL through the site and reads name, artist and album
// from the page. Fields that cannot be located are nil; only a failed request is an error.
func (c *Client) TrackInfo(ctx context.Context, trackURL string) (*TrackInfo, error) {
	info := &TrackInfo{URL: trackURL}
	log := c.logger.WithField("track_url", trackURL)

	if strings.TrimSpace(trackURL) == "" {
		return infoFailed(log, info, errors.New(errors.ErrorTypeValidation, 0, "track URL is required"))
	}

	page, err := c.fetchPage(ctx, GetTrackPageURL(c.baseURL, trackURL))
	if err != nil {
		return infoFailed(log, info, err)
	}

	fields, err := c.fields.Locate(page)
	if err != nil {
		log.WithError(err).Warn("Could not parse track page")
		return info, nil
	}

	info.Name = optional(fields.Name)
	info.Artist = optional(fields.Artist)
	info.Album = optional(fields.Album)

	log.Debug("Track info fetched")
	return info, nil
}

func infoFailed(log logger.Logger, info *TrackInfo, err error) (*TrackInfo, error) {
	log.WithError(err).Warn("Track info failed")
	info.Error = err.Error()
	info.ErrorType = errors.TypeOf(err)
	return info, err
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Download resolves trackURL, follows the page's download link and streams the
// payload to outputPath, or to the download directory under a derived name when
// outputPath is empty. Two limiter waits are taken: one per request. A page
// without a download link fails without a second request.
func (c *Client) Download(ctx context.Context, trackURL, outputPath string) (*DownloadResult, error) {
	result := &DownloadResult{}
	log := c.logger.WithField("track_url", trackURL)

	if strings.TrimSpace(trackURL) == "" {
		return downloadFailed(log, result, errors.New(errors.ErrorTypeValidation, 0, "track URL is required"))
	}

	page, err := c.fetchPage(ctx, GetTrackPageURL(c.baseURL, trackURL))
	if err != nil {
		return downloadFailed(log, result, err)
	}

	link, err := extract.FindDownloadLink(c.links, page, c.baseURL)
	if err != nil || link == "" {
		return downloadFailed(log, result, errors.New(errors.ErrorTypeParsing, 0, "could not find download link"))
	}
	log.WithField("link", link).Debug("Found download link")

	resp, err := c.fetch(ctx, link, c.downloadTimeout)
	if err != nil {
		return downloadFailed(log, result, err)
	}
	defer resp.Close()

	dest := c.storage.Resolve(outputPath, FilenameFor(resp.Header, trackURL, c.clock.Now()))
	var body io.Reader = resp.Body
	if c.progress != nil {
		body = &progressReader{r: resp.Body, total: resp.ContentLength, fn: c.progress}
	}

	size, err := c.storage.Save(ctx, body, dest)
	if err != nil {
		return downloadFailed(log, result, err)
	}

	result.Success = true
	result.Filepath = dest
	result.Size = size
	logger.LogDownload(c.logger, trackURL, dest, size, nil)
	return result, nil
}

func downloadFailed(log logger.Logger, result *DownloadResult, err error) (*DownloadResult, error) {
	log.WithError(err).Warn("Download failed")
	result.Success = false
	result.Error = err.Error()
	result.ErrorType = errors.TypeOf(err)
	return result, err
}
