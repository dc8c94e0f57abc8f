package bot

import "time"

// Command names.
const (
	CmdStart     = "start"
	CmdHelp      = "help"
	CmdStats     = "stats"
	CmdScan      = "scan"
	CmdWhitelist = "whitelist"
	CmdCancel    = "cancel"
)

// Log field names.
const (
	LogFieldUserID   = "user_id"
	LogFieldUsername = "username"
	LogFieldChatID   = "chat_id"
	LogFieldScope    = "scope"
	LogFieldSourceID = "source_id"
)

// Update kinds requested from getUpdates.
const (
	updateMessage      = "message"
	updateChannelPost  = "channel_post"
	updateMyChatMember = "my_chat_member"
)

const channelIDPrefix = "-100"

const (
	// pollRetryDelay is the pause after a failed getUpdates call.
	pollRetryDelay = 3 * time.Second
	// pollBatchLimit is the maximum number of updates per getUpdates call.
	pollBatchLimit = 100
	// liveHandleTimeout bounds the handling of one live media event.
	liveHandleTimeout = 2 * time.Minute
	// commandTimeout bounds the handling of one operator command.
	commandTimeout = 30 * time.Second
	// sessionSweepInterval is how often expired scan sessions are dropped.
	sessionSweepInterval = time.Minute
)
