package cache

import "fmt"

// Key schema:
// - roomKey(roomID):   online members (ZSet<userID, expireAtUnix>, score=expireAt)
// - namesKey(roomID):  userID -> display name (Hash)
// - cursorKey(...):    last reported cursor (String, JSON)
const (
	keyRoomFmt   = "presence:room:{room:%s}"
	keyNamesFmt  = "presence:room:names:{room:%s}"
	keyCursorFmt = "presence:cursor:%s:%s"
)

func roomKey(roomID string) string { return fmt.Sprintf(keyRoomFmt, roomID) }
func namesKey(roomID string) string { return fmt.Sprintf(keyNamesFmt, roomID) }

func cursorKey(roomID, userID string) string {
	return fmt.Sprintf(keyCursorFmt, roomID, userID)
}
