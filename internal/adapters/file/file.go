package file

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
)

// MaxDownloadSize caps source images fetched for enhancement. Telegram bots cannot download larger files anyway.
const MaxDownloadSize = 20 << 20

// Download returns the byte content of a file on a provided URL.
func Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		err = fmt.Errorf("error creating request %w", err)
		log.Error().Err(err).Send()
		return nil, err
	}

	client := &http.Client{}
	res, err := client.Do(req)
	if err != nil {
		err = fmt.Errorf("error executing request %w", err)
		log.Error().Err(err).Send()
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		err = fmt.Errorf("unexpected status code on download: %d", res.StatusCode)
		log.Error().Err(err).Send()
		return nil, err
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, MaxDownloadSize+1))
	if err != nil {
		err = fmt.Errorf("error reading response %w", err)
		log.Error().Err(err).Send()
		return nil, err
	}

	if len(buf) > MaxDownloadSize {
		err = fmt.Errorf("file exceeds %d bytes", MaxDownloadSize)
		log.Error().Err(err).Send()
		return nil, err
	}

	return buf, nil
}

// HTTPDownloader exposes Download through port.FileDownloader.
type HTTPDownloader struct{}

func (HTTPDownloader) Download(ctx context.Context, url string) ([]byte, error) {
	return Download(ctx, url)
}
