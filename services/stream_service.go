package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/mlbb-arena/arena-backend/twitch"
	"golang.org/x/sync/singleflight"
)

const (
	// Mobile Legends: Bang Bang в каталоге Twitch.
	mlbbGameID = "494184"

	streamCacheTTL = 60 * time.Second
	maxStreamItems = 6
)

// allowedChannels задаёт каналы, чьи трансляции и записи показываются на площадке.
var allowedChannels = []string{"mlbb_cis", "syberia_gaming", "oneshotmlbb"}

// StreamItem описывает элемент ленты трансляций: живой эфир или запись.
type StreamItem struct {
	ID           string    `json:"id"`
	Channel      string    `json:"channel"`
	ChannelName  string    `json:"channel_name"`
	Title        string    `json:"title"`
	ThumbnailURL string    `json:"thumbnail_url"`
	URL          string    `json:"url"`
	Live         bool      `json:"live"`
	ViewerCount  int       `json:"viewer_count,omitempty"`
	StartedAt    time.Time `json:"started_at,omitempty"`
	PublishedAt  time.Time `json:"published_at,omitempty"`
}

type StreamListing struct {
	Live  bool         `json:"live"`
	Items []StreamItem `json:"items"`
}

type StreamService interface {
	GetListing(ctx context.Context) (*StreamListing, error)
}

type streamService struct {
	client *twitch.Client
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	cached   *StreamListing
	cachedAt time.Time
	group    singleflight.Group
}

func NewStreamService(client *twitch.Client, logger *slog.Logger) StreamService {
	return &streamService{
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// GetListing возвращает живые эфиры разрешённых каналов, а при их
// отсутствии последние записи. Ответ кэшируется, чтобы не упираться
// в rate limit Helix под нагрузкой.
func (s *streamService) GetListing(ctx context.Context) (*StreamListing, error) {
	s.mu.Lock()
	if s.cached != nil && s.now().Sub(s.cachedAt) < streamCacheTTL {
		listing := s.cached
		s.mu.Unlock()
		return listing, nil
	}
	s.mu.Unlock()

	v, err, _ := s.group.Do("listing", func() (interface{}, error) {
		listing, err := s.buildListing(ctx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.cached = listing
		s.cachedAt = s.now()
		s.mu.Unlock()
		return listing, nil
	})
	if err != nil {
		// Протухший кэш лучше, чем пустая лента при сбое Twitch.
		s.mu.Lock()
		stale := s.cached
		s.mu.Unlock()
		if stale != nil {
			s.logger.Warn("serving stale stream listing", slog.Any("error", err))
			return stale, nil
		}
		return nil, err
	}
	return v.(*StreamListing), nil
}

func (s *streamService) buildListing(ctx context.Context) (*StreamListing, error) {
	streams, err := s.client.GetStreamsByGame(ctx, mlbbGameID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch live streams: %w", err)
	}

	var items []StreamItem
	for _, stream := range streams {
		if !channelAllowed(stream.UserLogin) {
			continue
		}
		items = append(items, StreamItem{
			ID:           stream.ID,
			Channel:      stream.UserLogin,
			ChannelName:  stream.UserName,
			Title:        stream.Title,
			ThumbnailURL: stream.ThumbnailURL,
			URL:          "https://www.twitch.tv/" + stream.UserLogin,
			Live:         true,
			ViewerCount:  stream.ViewerCount,
			StartedAt:    stream.StartedAt,
		})
	}
	if len(items) > 0 {
		sort.Slice(items, func(i, j int) bool {
			return items[i].ViewerCount > items[j].ViewerCount
		})
		return &StreamListing{Live: true, Items: items}, nil
	}

	return s.archivedListing(ctx)
}

// archivedListing собирает записи всех разрешённых каналов в одну ленту.
// Недоступный канал пропускается, не роняя остальные.
func (s *streamService) archivedListing(ctx context.Context) (*StreamListing, error) {
	var videos []twitch.Video
	for _, login := range allowedChannels {
		channelVideos, err := s.client.GetChannelVideos(ctx, login, maxStreamItems)
		if err != nil {
			s.logger.Warn("failed to fetch channel videos",
				slog.String("channel", login),
				slog.Any("error", err),
			)
			continue
		}
		videos = append(videos, channelVideos...)
	}

	sort.Slice(videos, func(i, j int) bool {
		return videos[i].PublishedAt.After(videos[j].PublishedAt)
	})
	if len(videos) > maxStreamItems {
		videos = videos[:maxStreamItems]
	}

	items := make([]StreamItem, 0, len(videos))
	for _, video := range videos {
		items = append(items, StreamItem{
			ID:           video.ID,
			Channel:      video.UserLogin,
			ChannelName:  video.UserName,
			Title:        video.Title,
			ThumbnailURL: video.ThumbnailURL,
			URL:          video.URL,
			Live:         false,
			PublishedAt:  video.PublishedAt,
		})
	}
	return &StreamListing{Live: false, Items: items}, nil
}

func channelAllowed(login string) bool {
	for _, allowed := range allowedChannels {
		if login == allowed {
			return true
		}
	}
	return false
}
