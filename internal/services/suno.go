package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/snx/internal/fetch"
	"github.com/desertthunder/snx/internal/models"
	"github.com/desertthunder/snx/internal/shared"
)

// ProfileList names one of the signed-in user's profile listings.
type ProfileList string

const (
	Followers ProfileList = "followers"
	Following ProfileList = "following"
)

// Content types accepted by the hide-creator endpoint.
const (
	ContentClip = "CLIP"
	ContentHook = "HOOK"
)

const (
	profilesTotalField = "num_total_profiles"
	likedTotalField    = "num_total_results"
)

type profilesPage struct {
	Profiles []models.Profile `json:"profiles"`
}

type clipEntry struct {
	Clip models.Clip `json:"clip"`
}

type likedPage struct {
	PlaylistClips []clipEntry `json:"playlist_clips"`
}

type notificationFeed struct {
	Notifications []struct {
		UserProfiles []models.Profile `json:"user_profiles"`
	} `json:"notifications"`
}

type recentClips struct {
	UserID string `json:"user_id"`
}

type creatorInfo struct {
	Stats models.CreatorStats `json:"stats"`
}

type alignedLyrics struct {
	AlignedLyrics []models.LyricLine `json:"aligned_lyrics"`
}

type projectList struct {
	Projects []models.Project `json:"projects"`
}

type projectDetail struct {
	ProjectClips []clipEntry `json:"project_clips"`
}

type trendingRow struct {
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
	Stats       struct {
		FollowersCount int `json:"followers_count"`
		LikesCount     int `json:"likes_count"`
		ClipsCount     int `json:"clips_count"`
		LastLogin      any `json:"last_login"`
	} `json:"stats"`
}

type searchResponse struct {
	Result struct {
		User struct {
			Result []trendingRow `json:"result"`
		} `json:"user"`
	} `json:"result"`
}

// SunoService calls the Suno studio API through a [fetch.Doer].
type SunoService struct {
	doer      fetch.Doer
	migration fetch.Doer
	paging    shared.PagingConfig
	logger    *log.Logger
}

// NewSunoService creates a service. Project endpoints use migration, or doer when migration is nil.
func NewSunoService(doer, migration fetch.Doer, paging shared.PagingConfig, logger *log.Logger) *SunoService {
	if migration == nil {
		migration = doer
	}
	if logger == nil {
		logger = log.Default()
	}
	return &SunoService{doer: doer, migration: migration, paging: paging, logger: logger}
}

// Doer returns the doer used for sweeps.
func (s *SunoService) Doer() fetch.Doer { return s.doer }

// ProfilesSpec describes a sweep of the signed-in user's followers or following.
func (s *SunoService) ProfilesSpec(list ProfileList) fetch.PageSpec[string] {
	return s.handleSpec(string(list), "/profiles/"+string(list))
}

// FollowersOfSpec describes a sweep of another user's followers.
func (s *SunoService) FollowersOfSpec(handle string) fetch.PageSpec[string] {
	handle = shared.NormalizeHandle(handle)
	return s.handleSpec("followers:"+handle, "/profiles/"+url.PathEscape(handle)+"/followers")
}

func (s *SunoService) handleSpec(name, base string) fetch.PageSpec[string] {
	return fetch.PageSpec[string]{
		Name:       name,
		TotalPath:  base + "?page=1",
		TotalField: profilesTotalField,
		PagePath:   func(page int) string { return base + "?page=" + strconv.Itoa(page) },
		FirstPage:  1,
		PageSize:   s.paging.ProfilesPageSize,
		Delay:      shared.Ms(s.paging.ProfilesDelayMS),
		Extract:    extractHandles,
		Logger:     s.logger,
	}
}

func extractHandles(body []byte) ([]string, error) {
	var page profilesPage
	if err := decode(body, &page); err != nil {
		return nil, err
	}
	handles := make([]string, 0, len(page.Profiles))
	for _, p := range page.Profiles {
		handles = append(handles, p.Handle)
	}
	return handles, nil
}

// LikedSpec describes a sweep of the liked-songs playlist.
func (s *SunoService) LikedSpec() fetch.PageSpec[models.IndexItem] {
	size := s.paging.LikedPageSize
	return fetch.PageSpec[models.IndexItem]{
		Name:       "liked",
		TotalPath:  "/playlist/liked?page=1",
		TotalField: likedTotalField,
		PagePath: func(page int) string {
			return fmt.Sprintf("/playlist/liked?page=%d&page_size=%d", page, size)
		},
		FirstPage: 0,
		PageSize:  size,
		Delay:     shared.Ms(s.paging.LikedDelayMS),
		Extract:   extractIndexItems,
		Logger:    s.logger,
	}
}

func extractIndexItems(body []byte) ([]models.IndexItem, error) {
	var page likedPage
	if err := decode(body, &page); err != nil {
		return nil, err
	}
	items := make([]models.IndexItem, 0, len(page.PlaylistClips))
	for _, c := range page.PlaylistClips {
		items = append(items, models.IndexItem{ID: c.Clip.ID, Title: c.Clip.Title})
	}
	return items, nil
}

// Handles sweeps a profile listing into a new set.
func (s *SunoService) Handles(ctx context.Context, list ProfileList) (*fetch.Set[string], *fetch.Result, error) {
	set := fetch.NewSet[string]()
	res, err := fetch.Collect(ctx, s.doer, set, s.ProfilesSpec(list))
	return set, res, err
}

// Follow follows handle, or unfollows it when unfollow is set.
func (s *SunoService) Follow(ctx context.Context, handle string, unfollow bool) error {
	body := map[string]any{"handle": handle, "unfollow": unfollow}
	if _, err := s.doer.Do(ctx, fetch.Post("/profiles/follow", body)); err != nil {
		return fmt.Errorf("follow %s: %w", handle, err)
	}
	return nil
}

// FeedPath is the home feed request the web app makes after a follow.
const FeedPath = "/feed/v2?hide_disliked=true&hide_studio_clips=true&page=0"

// TouchFeed loads the first page of the home feed and discards it.
func (s *SunoService) TouchFeed(ctx context.Context) error {
	if _, err := s.doer.Do(ctx, fetch.Get(FeedPath)); err != nil {
		return fmt.Errorf("load feed: %w", err)
	}
	return nil
}

// Block blocks handle, or unblocks it when unblock is set.
func (s *SunoService) Block(ctx context.Context, handle string, unblock bool) error {
	body := map[string]any{"handle": handle, "unblock": unblock, "source": "profile_page"}
	if _, err := s.doer.Do(ctx, fetch.Post("/profiles/block", body)); err != nil {
		return fmt.Errorf("block %s: %w", handle, err)
	}
	return nil
}

// NotificationProfiles returns every profile attached to the notification feed, in feed order.
func (s *SunoService) NotificationProfiles(ctx context.Context) ([]models.Profile, error) {
	var feed notificationFeed
	if err := s.getJSON(ctx, s.doer, "/notification/v2", &feed); err != nil {
		return nil, err
	}

	var profiles []models.Profile
	for _, n := range feed.Notifications {
		profiles = append(profiles, n.UserProfiles...)
	}
	return profiles, nil
}

// UserID resolves a handle to its user id through the recent clips endpoint.
func (s *SunoService) UserID(ctx context.Context, handle string) (string, error) {
	var clips recentClips
	if err := s.getJSON(ctx, s.doer, "/profiles/"+url.PathEscape(handle)+"/recent_clips", &clips); err != nil {
		return "", err
	}
	if clips.UserID == "" {
		return "", fmt.Errorf("%w: no user_id for %s", shared.ErrAPIRequest, handle)
	}
	return clips.UserID, nil
}

// CreatorStats returns the stats object of a creator.
func (s *SunoService) CreatorStats(ctx context.Context, userID string) (models.CreatorStats, error) {
	var info creatorInfo
	if err := s.getJSON(ctx, s.doer, "/user/get-creator-info/"+url.PathEscape(userID), &info); err != nil {
		return nil, err
	}
	if info.Stats == nil {
		return nil, fmt.Errorf("%w: no stats for user %s", shared.ErrAPIRequest, userID)
	}
	return info.Stats, nil
}

// AlignedLyrics returns the time-aligned lyrics of a clip.
func (s *SunoService) AlignedLyrics(ctx context.Context, clipID string) ([]models.LyricLine, error) {
	var lyrics alignedLyrics
	if err := s.getJSON(ctx, s.doer, "/gen/"+url.PathEscape(clipID)+"/aligned_lyrics/v2/", &lyrics); err != nil {
		return nil, err
	}
	return lyrics.AlignedLyrics, nil
}

// Comments returns the decoded comment tree of a clip, most liked first.
func (s *SunoService) Comments(ctx context.Context, clipID string) (any, error) {
	var tree any
	if err := s.getJSON(ctx, s.doer, "/gen/"+url.PathEscape(clipID)+"/comments?order=most_liked", &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// ParentClip returns the raw parent lookup for a clip.
func (s *SunoService) ParentClip(ctx context.Context, clipID string) (json.RawMessage, error) {
	resp, err := s.doer.Do(ctx, fetch.Get("/clips/parent?clip_id="+url.QueryEscape(clipID)))
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp.Body), nil
}

// HideCreator hides a creator's content of the given type from recommendations.
// The response body is returned as-is and may be empty.
func (s *SunoService) HideCreator(ctx context.Context, contentType, handle string) (json.RawMessage, error) {
	contentType = strings.ToUpper(strings.TrimSpace(contentType))
	if contentType == "" {
		contentType = ContentClip
	}
	if contentType != ContentClip && contentType != ContentHook {
		return nil, fmt.Errorf("%w: content type must be %s or %s, got %q", shared.ErrInvalidArgument, ContentClip, ContentHook, contentType)
	}

	handle = shared.NormalizeHandle(handle)
	if handle == "" {
		return nil, fmt.Errorf("%w: user handle is required", shared.ErrMissingArgument)
	}

	body := map[string]string{"content_type": contentType, "user_handle": handle}
	resp, err := s.doer.Do(ctx, fetch.Post("/recommend/hide-creator", body))
	if err != nil {
		return nil, fmt.Errorf("hide %s: %w", handle, err)
	}
	return json.RawMessage(resp.Body), nil
}

// Projects lists the signed-in user's workspaces.
func (s *SunoService) Projects(ctx context.Context) ([]models.Project, error) {
	var list projectList
	if err := s.getJSON(ctx, s.migration, "/project/me", &list); err != nil {
		return nil, err
	}
	return list.Projects, nil
}

// ProjectClipIDs returns the ids of the clips in a workspace.
func (s *SunoService) ProjectClipIDs(ctx context.Context, projectID string) ([]string, error) {
	var detail projectDetail
	if err := s.getJSON(ctx, s.migration, "/project/"+url.PathEscape(projectID), &detail); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(detail.ProjectClips))
	for _, c := range detail.ProjectClips {
		ids = append(ids, c.Clip.ID)
	}
	return ids, nil
}

// RemoveProjectClips removes clips from a workspace.
func (s *SunoService) RemoveProjectClips(ctx context.Context, projectID string, clipIDs []string) error {
	body := map[string]any{
		"update_type": "remove",
		"metadata":    map[string]any{"clip_ids": clipIDs},
	}
	if _, err := s.migration.Do(ctx, fetch.Post("/project/"+url.PathEscape(projectID)+"/clips", body)); err != nil {
		return fmt.Errorf("remove clips from %s: %w", projectID, err)
	}
	return nil
}

// TrendingUsers returns up to size users ranked by the trending search.
func (s *SunoService) TrendingUsers(ctx context.Context, size int) ([]models.TrendingUser, error) {
	body := map[string]any{
		"search_queries": []map[string]any{{
			"name":        "user",
			"search_type": "user",
			"term":        "",
			"from_index":  0,
			"size":        size,
			"rank_by":     "trending",
		}},
	}

	resp, err := s.doer.Do(ctx, fetch.Post("/search/", body))
	if err != nil {
		return nil, err
	}

	var result searchResponse
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}

	users := make([]models.TrendingUser, 0, len(result.Result.User.Result))
	for _, row := range result.Result.User.Result {
		u := models.TrendingUser{
			Handle:         row.Handle,
			DisplayName:    row.DisplayName,
			FollowersCount: row.Stats.FollowersCount,
			LikesCount:     row.Stats.LikesCount,
			ClipsCount:     row.Stats.ClipsCount,
		}
		if row.Stats.LastLogin != nil {
			u.LastLogin = fmt.Sprint(row.Stats.LastLogin)
		}
		users = append(users, u)
	}
	return users, nil
}

// UserHooks returns a page of a user's hooks as raw JSON.
func (s *SunoService) UserHooks(ctx context.Context, handle string, start, size int) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("start_index", strconv.Itoa(start))
	q.Set("page_size", strconv.Itoa(size))
	q.Set("user_handle", shared.NormalizeHandle(handle))

	resp, err := s.doer.Do(ctx, fetch.Get("/video/hooks/user_hooks?"+q.Encode()))
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp.Body), nil
}

func (s *SunoService) getJSON(ctx context.Context, doer fetch.Doer, path string, v any) error {
	resp, err := doer.Do(ctx, fetch.Get(path))
	if err != nil {
		return err
	}
	return resp.Decode(v)
}

func decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: failed to decode page: %v", shared.ErrAPIRequest, err)
	}
	return nil
}
