package quranapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/escalopa/quran-recite-grader/internal/domain"
)

// Client downloads canonical verse texts from the Quran API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type versesResponse struct {
	Verses []verseResponse `json:"verses"`
}

type verseResponse struct {
	AyahID string `json:"ayah_id"`
	Text   string `json:"text"`
}

// FetchSurah returns the verses of one surah in ayah order.
func (c *Client) FetchSurah(ctx context.Context, surah int) ([]domain.VerseRecord, error) {
	info, err := domain.GetSurah(surah)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/surahs/%d/verses", c.baseURL, surah)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result versesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	verses := make([]domain.VerseRecord, 0, len(result.Verses))
	for _, v := range result.Verses {
		ref, err := domain.ParseAyahID(v.AyahID)
		if err != nil {
			return nil, fmt.Errorf("surah %d: %w", surah, err)
		}
		if ref.Surah != surah {
			return nil, fmt.Errorf("surah %d: unexpected ayah %s in response", surah, ref)
		}
		verses = append(verses, domain.VerseRecord{Reference: ref, Text: v.Text})
	}

	if len(verses) != info.Ayahs {
		return nil, fmt.Errorf("surah %d: got %d ayahs, expected %d", surah, len(verses), info.Ayahs)
	}

	return verses, nil
}

// FetchAll downloads every listed surah, stopping at the first failure.
// progress, when non-nil, is called after each surah.
func (c *Client) FetchAll(ctx context.Context, surahs []int, progress func(surah, ayahs int)) ([]domain.VerseRecord, error) {
	var all []domain.VerseRecord
	for _, n := range surahs {
		verses, err := c.FetchSurah(ctx, n)
		if err != nil {
			return nil, fmt.Errorf("fetch surah %d: %w", n, err)
		}
		all = append(all, verses...)
		if progress != nil {
			progress(n, len(verses))
		}
	}
	return all, nil
}
