// Package wire defines the JSON bodies of the game server's HTTP contract.
// The router forwards these verbatim, so clients see the same shapes whether
// they talk to a backend directly or through the front door.
package wire

// Board is the grid as it crosses the wire: 6 rows of 7 cells, row 0 at the
// top; cells are 0 empty, 1 seat 0, 2 seat 1.
type Board [6][7]int

type CreateRoomRequest struct {
	Player string `json:"player"`
}

type CreateRoomResponse struct {
	RoomID string `json:"room_id"`
}

type JoinRoomRequest struct {
	Player string `json:"player"`
	RoomID string `json:"room_id"`
}

type JoinRoomResponse struct {
	RoomID  string `json:"room_id"`
	Success bool   `json:"success"`
}

type QuickJoinRequest struct {
	Player string `json:"player"`
}

type QuickJoinResponse struct {
	RoomID string `json:"room_id"`
}

type SetReadyRequest struct {
	Player string `json:"player"`
	RoomID string `json:"room_id"`
}

type SetReadyResponse struct {
	AllReady bool `json:"all_ready"`
}

type MakeMoveRequest struct {
	Player string `json:"player"`
	RoomID string `json:"room_id"`
	Col    int    `json:"col"`
}

type MakeMoveResponse struct {
	Success bool    `json:"success"`
	Winner  *string `json:"winner"`
}

type LobbyStatusResponse struct {
	Players []string        `json:"players"`
	Ready   map[string]bool `json:"ready"`
}

// GameStateResponse is the full public view of a game. Turn indexes into the
// room's player list.
type GameStateResponse struct {
	Board  Board   `json:"board"`
	Turn   int     `json:"turn"`
	Winner *string `json:"winner"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
