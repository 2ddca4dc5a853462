package handler

import (
	"context"
	"strings"
	"time"

	"github.com/propcraft/server/internal/net"
	"github.com/propcraft/server/internal/net/packet"
	"go.uber.org/zap"
)

const (
	loginOK          byte = 0x00
	loginWrongPass   byte = 0x01
	loginNoAccount   byte = 0x02
	loginBanned      byte = 0x03
	loginAlreadyOn   byte = 0x04
	loginUnavailable byte = 0x05
)

// HandleLogin processes C_OPCODE_LOGIN.
// Format: [opcode][name\0][password\0]
func HandleLogin(sess *net.Session, r *packet.Reader, deps *Deps) {
	name := strings.ToLower(strings.TrimSpace(r.ReadS()))
	password := r.ReadS()

	if name == "" || password == "" {
		sendLoginResult(sess, loginWrongPass)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	account, err := deps.AccountRepo.Load(ctx, name)
	if err != nil {
		deps.Log.Error("account load failed", zap.String("account", name), zap.Error(err))
		sendLoginResult(sess, loginUnavailable)
		return
	}

	if account == nil {
		if !deps.Config.Network.AutoCreateAccounts {
			sendLoginResult(sess, loginNoAccount)
			return
		}
		account, err = deps.AccountRepo.Create(ctx, name, password, deps.Config.Server.StartingGold)
		if err != nil {
			deps.Log.Error("account create failed", zap.String("account", name), zap.Error(err))
			sendLoginResult(sess, loginUnavailable)
			return
		}
		deps.Log.Info("account auto-created", zap.String("account", name))
	} else {
		if account.Banned {
			sendLoginResult(sess, loginBanned)
			return
		}
		if !deps.AccountRepo.ValidatePassword(account.PasswordHash, password) {
			sendLoginResult(sess, loginWrongPass)
			return
		}
	}

	// One session per participant.
	duplicate := false
	deps.Sessions.Each(func(other *net.Session) {
		if other.ID != sess.ID && other.ParticipantID == name {
			duplicate = true
		}
	})
	if duplicate {
		sendLoginResult(sess, loginAlreadyOn)
		return
	}

	if err := deps.AccountRepo.UpdateLastActive(ctx, name); err != nil {
		deps.Log.Warn("last_active update failed", zap.String("account", name), zap.Error(err))
	}

	sess.ParticipantID = name
	sess.Admin = account.Admin
	sess.SetState(packet.StateAuthenticated)
	sendLoginResult(sess, loginOK)

	deps.Log.Info("login", zap.String("account", name), zap.Uint64("session", sess.ID))
}
