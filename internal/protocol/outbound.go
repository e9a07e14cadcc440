package protocol

// PlaybackStateView is the wire projection of a room's playback state,
// with position already derived at the time of encoding (spec §3, §4.5).
type PlaybackStateView struct {
	IsPlaying     bool    `json:"isPlaying"`
	CurrentSong   *Song   `json:"currentSong"`
	Position      float64 `json:"position"`
	StartTime     *int64  `json:"startTime"`
	LastUpdatedMs int64   `json:"lastUpdatedMs"`
	SongID        string  `json:"songId,omitempty"`
	TriggeredBy   string  `json:"triggeredBy,omitempty"`
}

type Connected struct {
	Type       string `json:"type"`
	ClientID   string `json:"clientId"`
	ServerTime int64  `json:"serverTime"`
}

type ErrorMessage struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

func NewError(message string, timestamp int64) ErrorMessage {
	return ErrorMessage{Type: "error", Message: message, Timestamp: timestamp}
}

type RoomJoined struct {
	Type          string            `json:"type"`
	RoomID        string            `json:"roomId"`
	PlaybackState PlaybackStateView `json:"playbackState"`
	ClientCount   int               `json:"clientCount"`
}

type ServerStateSync struct {
	Type            string            `json:"type"`
	PlaybackState   PlaybackStateView `json:"playbackState"`
	ServerTime      int64             `json:"serverTime"`
	IsServerPlaying bool              `json:"isServerPlaying"`
}

type ClientJoined struct {
	Type        string `json:"type"`
	ClientID    string `json:"clientId"`
	ClientCount int    `json:"clientCount"`
}

type ClientLeft struct {
	Type        string `json:"type"`
	ClientID    string `json:"clientId"`
	ClientCount int    `json:"clientCount"`
}

type ServerPlaySync struct {
	Type        string  `json:"type"`
	Position    float64 `json:"position"`
	ServerTime  int64   `json:"serverTime"`
	StartTime   int64   `json:"startTime"`
	SongID      string  `json:"songId,omitempty"`
	TriggeredBy string  `json:"triggeredBy"`
}

type SeekSync struct {
	Type        string  `json:"type"`
	Position    float64 `json:"position"`
	IsPlaying   bool    `json:"isPlaying"`
	ServerTime  int64   `json:"serverTime"`
	StartTime   *int64  `json:"startTime"`
	TriggeredBy string  `json:"triggeredBy"`
}

type SongChangeSync struct {
	Type        string `json:"type"`
	Song        *Song  `json:"song"`
	ServerTime  int64  `json:"serverTime"`
	StartTime   int64  `json:"startTime"`
	TriggeredBy string `json:"triggeredBy"`
}

type NewSongNotification struct {
	Type       string `json:"type"`
	Song       *Song  `json:"song"`
	StartTime  int64  `json:"startTime"`
	ServerTime int64  `json:"serverTime"`
	WasIdle    *bool  `json:"wasIdle,omitempty"`
}

type ClientPauseAck struct {
	Type      string `json:"type"`
	ClientID  string `json:"clientId"`
	Timestamp int64  `json:"timestamp"`
}

type SyncResponse struct {
	Type          string            `json:"type"`
	PlaybackState PlaybackStateView `json:"playbackState"`
	ServerTime    int64             `json:"serverTime"`
}

type RoomStateResponse struct {
	Type          string            `json:"type"`
	PlaybackState PlaybackStateView `json:"playbackState"`
	ServerTime    int64             `json:"serverTime"`
	RequestID     string            `json:"requestId,omitempty"`
	Queue         []*Song           `json:"queue"`
}

type SongAddedResponse struct {
	Type         string `json:"type"`
	Success      bool   `json:"success"`
	Song         *Song  `json:"song"`
	SetAsCurrent bool   `json:"setAsCurrent"`
	QueueLength  int    `json:"queueLength"`
}
