package main

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

func messagesPageHandler(c *gin.Context) {
	user := getCurrentUser(c)
	if user == nil {
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}
	inbox, err := messageService.Inbox(user.ID)
	if err != nil {
		c.String(http.StatusInternalServerError, "Error loading messages")
		return
	}
	data := basePage(c)
	data["Messages"] = inbox
	c.HTML(http.StatusOK, "messages.html", data)
}

func conversationHandler(c *gin.Context) {
	user := getCurrentUser(c)
	if user == nil {
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}
	rootID, err := parseID(c.Param("id"))
	if err != nil {
		notFoundPage(c)
		return
	}
	messages, err := messageService.Conversation(rootID, user.ID)
	if err != nil {
		notFoundPage(c)
		return
	}
	for _, m := range messages {
		if m.RecipientID == user.ID && !m.IsRead {
			messageService.MarkRead(m.ID, user.ID)
		}
	}
	data := basePage(c)
	data["Conversation"] = messages
	data["RootID"] = rootID
	// The reply box is addressed to the other participant of the root message.
	if len(messages) > 0 {
		root := messages[0]
		if root.SenderID == user.ID && root.Recipient != nil {
			data["ReplyTo"] = root.Recipient.Username
		} else if root.Sender != nil {
			data["ReplyTo"] = root.Sender.Username
		}
	}
	c.HTML(http.StatusOK, "conversation.html", data)
}

func sendMessageHandler(c *gin.Context) {
	user := getCurrentUser(c)
	if user == nil {
		failRequest(c, "/login", ErrNotAuthenticated)
		return
	}

	var replyTo *uint
	if raw := c.PostForm("reply_to"); raw != "" {
		if id, err := parseID(raw); err == nil {
			replyTo = &id
		}
	}

	msg, err := messageService.Send(user.ID,
		c.PostForm("recipient"), c.PostForm("subject"), c.PostForm("content"), replyTo)
	if err != nil {
		failRequest(c, "/messages", err)
		return
	}

	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"id": msg.ID})
		return
	}
	if msg.ThreadID != nil {
		c.Redirect(http.StatusSeeOther, fmt.Sprintf("/messages/%d", *msg.ThreadID))
		return
	}
	c.Redirect(http.StatusSeeOther, "/messages")
}
