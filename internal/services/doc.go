// Package services wraps the Suno studio API endpoints used by snx.
//
// [SunoService] turns each endpoint into a typed call over a [fetch.Doer]. Listing endpoints are
// exposed as [fetch.PageSpec] values so callers choose the accumulator and drive the sweep with
// [fetch.Collect]. Project endpoints go through a second doer configured with the slower
// migration retry policy.
//
// # API Mappings
//
// Responses are normalized into the models package:
//   - /profiles/{list} and /profiles/{handle}/followers : handles from profiles[].handle
//   - /playlist/liked : [models.IndexItem] from playlist_clips[].clip
//   - /notification/v2 : [models.Profile] from notifications[].user_profiles
//   - /gen/{id}/aligned_lyrics/v2/ : [models.LyricLine]
//   - /project/me and /project/{id} : [models.Project]
//   - /search/ : [models.TrendingUser]
//
// [APIService] sends raw requests for the `snx api` commands and reports whatever came back.
//
// # Error Handling
//
// Transport and status failures come from the doer (see [fetch.RequestExhausted]). Decoding
// failures and missing fields wrap [shared.ErrAPIRequest].
package services
