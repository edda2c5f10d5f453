package cache

import "fmt"

// Key layout:
//   - roomKey(docID):  ZSet<userId, expireAtUnix> of members currently in the room
//   - namesKey(docID): Hash<userId -> username> for the same room
//   - docsKey():       name for a Set<docID> room index; nothing in this
//     package writes or reads it, and GetDocuments finds rooms by scanning
//     roomKey keys instead

const (
	keyRoomFmt  = "presence:room:{docID:%s}"
	keyNamesFmt = "presence:room:names:{docID:%s}"
	keyDocsSet  = "presence:docs"
)

func roomKey(docID string) string  { return fmt.Sprintf(keyRoomFmt, docID) }
func namesKey(docID string) string { return fmt.Sprintf(keyNamesFmt, docID) }
func docsKey() string              { return keyDocsSet }
