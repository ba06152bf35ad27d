package main

const (
	RouteGuess        = "/api/guess"
	RoutePuzzleMeta   = "/api/puzzle/:universe"
	RoutePuzzleStatus = "/api/puzzle/:universe/status"
	RouteStreaks      = "/api/streaks"
	RouteProgress     = "/api/progress"
	RouteHotfix       = "/api/admin/hotfix"
	RouteCreateUser   = "/api/admin/users"
	RouteHealthz      = "/healthz"
)

const (
	DefaultRosterPath    = "data/characters.json"
	DefaultDBPath        = "data/comicguess.db"
	DefaultRetentionDays = 365
)
