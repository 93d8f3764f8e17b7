package badgerdb

import (
	"fmt"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

// Key layout:
//
//	seq:user                  user id sequence
//	user:id:<id, 20 digits>   JSON user
//	user:email:<email>        user id
//	user:name:<username>      user id
//	msg:ts:<unix nanos>:<id>  JSON message, iterated in time order
//	msg:id:<id>               the msg:ts key of that message
const (
	keyUserSeq      = "seq:user"
	prefixUserID    = "user:id:"
	prefixUserEmail = "user:email:"
	prefixUserName  = "user:name:"
	prefixMsgTS     = "msg:ts:"
	prefixMsgID     = "msg:id:"
)

func userIDKey(id domain.UserID) []byte {
	return []byte(fmt.Sprintf("%s%020d", prefixUserID, id))
}

func userEmailKey(email string) []byte { return []byte(prefixUserEmail + email) }
func userNameKey(name string) []byte   { return []byte(prefixUserName + name) }

func msgTSKey(at time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", prefixMsgTS, at.UnixNano(), id))
}

func msgIDKey(id string) []byte { return []byte(prefixMsgID + id) }
