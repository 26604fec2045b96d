package captions

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/creachadair/atomicfile"

	"watchask/internal/domain"
)

// CookiesEnv names the environment variable carrying an optional
// base64-encoded Netscape cookie bundle for bot-detection bypass.
const CookiesEnv = "WATCHASK_COOKIES_B64"

// commandRunner abstracts subprocess execution so tests can stub yt-dlp.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// YtDlpSource is the secondary caption backend: it asks yt-dlp for the
// video's subtitle and auto-caption track URLs, fetches the chosen track in
// whichever format is offered, and normalizes it.
type YtDlpSource struct {
	client     *http.Client
	binary     string
	cookiesB64 string
	run        commandRunner
}

// NewYtDlpSource builds the source. binary defaults to "yt-dlp" when empty;
// cookiesB64 may be empty, in which case no cookie file is written.
func NewYtDlpSource(client *http.Client, binary, cookiesB64 string) *YtDlpSource {
	if client == nil {
		client = http.DefaultClient
	}
	if binary == "" {
		binary = "yt-dlp"
	}
	return &YtDlpSource{client: client, binary: binary, cookiesB64: cookiesB64, run: runCommand}
}

func (s *YtDlpSource) Name() string { return "yt-dlp" }

// videoInfo mirrors the slices of `yt-dlp -J` output we care about:
// per-language lists of subtitle track URLs with their formats.
type videoInfo struct {
	Subtitles    map[string][]subtitleTrack `json:"subtitles"`
	AutoCaptions map[string][]subtitleTrack `json:"automatic_captions"`
}

type subtitleTrack struct {
	URL string `json:"url"`
	Ext string `json:"ext"`
}

func (s *YtDlpSource) Fetch(ctx context.Context, videoID string, preferred []string) (domain.Transcript, error) {
	cookiePath, cleanup, err := s.writeCookies()
	if err != nil {
		return domain.Transcript{}, err
	}
	defer cleanup()

	info, err := s.dumpInfo(ctx, videoID, cookiePath)
	if err != nil {
		return domain.Transcript{}, err
	}

	lang, variants := chooseSubtitleTrack(info, preferred)
	if len(variants) == 0 {
		return domain.Transcript{}, errors.New("yt-dlp reported no subtitle tracks")
	}
	chosen := chooseFormat(variants)

	data, err := s.download(ctx, chosen.URL)
	if err != nil {
		return domain.Transcript{}, err
	}

	var fragments []domain.Fragment
	if chosen.Ext == "json3" {
		fragments, err = parseJSON3(data)
	} else {
		fragments, err = parseSubtitles(data, chosen.Ext)
	}
	if err != nil {
		return domain.Transcript{}, err
	}
	return domain.Transcript{Fragments: fragments, LanguageCode: lang}, nil
}

// writeCookies materializes the base64 cookie bundle as a transient file for
// the duration of one fetch. The returned cleanup removes it on every exit
// path; with no bundle configured both return values are no-ops.
func (s *YtDlpSource) writeCookies() (string, func(), error) {
	if s.cookiesB64 == "" {
		return "", func() {}, nil
	}
	raw, err := base64.StdEncoding.DecodeString(s.cookiesB64)
	if err != nil {
		return "", nil, fmt.Errorf("decode cookie bundle: %w", err)
	}
	dir, err := os.MkdirTemp("", "watchask-cookies-")
	if err != nil {
		return "", nil, err
	}
	path := filepath.Join(dir, "cookies.txt")
	f, err := atomicfile.New(path, 0600)
	if err != nil {
		os.RemoveAll(dir)
		return "", nil, err
	}
	if _, err := f.Write(raw); err != nil {
		f.Cancel()
		os.RemoveAll(dir)
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		os.RemoveAll(dir)
		return "", nil, err
	}
	return path, func() { os.RemoveAll(dir) }, nil
}

func (s *YtDlpSource) dumpInfo(ctx context.Context, videoID, cookiePath string) (videoInfo, error) {
	args := []string{"-J", "--no-warnings", "--skip-download"}
	if cookiePath != "" {
		args = append(args, "--cookies", cookiePath)
	}
	args = append(args, watchPageURL+videoID)

	out, err := s.run(ctx, s.binary, args...)
	if err != nil {
		return videoInfo{}, fmt.Errorf("yt-dlp: %w", err)
	}
	var info videoInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return videoInfo{}, fmt.Errorf("decode yt-dlp output: %w", err)
	}
	return info, nil
}

// chooseSubtitleTrack applies the shared preference ordering over the manual
// and auto-caption maps. Manually authored tracks win over auto-generated
// ones for the same language. Entries are sorted so the last-resort
// "first available" pick is deterministic.
func chooseSubtitleTrack(info videoInfo, preferred []string) (string, []subtitleTrack) {
	type entry struct {
		lang     string
		variants []subtitleTrack
		auto     bool
	}
	var entries []entry
	for lang, variants := range info.Subtitles {
		entries = append(entries, entry{lang, variants, false})
	}
	for lang, variants := range info.AutoCaptions {
		entries = append(entries, entry{lang, variants, true})
	}
	if len(entries) == 0 {
		return "", nil
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].auto != entries[j].auto {
			return !entries[i].auto
		}
		return entries[i].lang < entries[j].lang
	})

	infos := make([]track, len(entries))
	for i, e := range entries {
		infos[i] = track{LanguageCode: e.lang, Auto: e.auto}
	}
	chosen := entries[pickTrack(infos, preferred)]
	return chosen.lang, chosen.variants
}

// chooseFormat prefers the compact json3 format, then vtt, then srt, then
// whatever the track offers first.
func chooseFormat(variants []subtitleTrack) subtitleTrack {
	for _, want := range []string{"json3", "vtt", "srt"} {
		for _, v := range variants {
			if v.Ext == want {
				return v
			}
		}
	}
	return variants[0]
}

func (s *YtDlpSource) download(ctx context.Context, trackURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, trackURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUA)
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch subtitle track: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch subtitle track: status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxTrackBytes))
}
