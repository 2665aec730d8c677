package main

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

func collectionsPageHandler(c *gin.Context) {
	user := getCurrentUser(c)
	if user == nil {
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}
	collections, err := collectionService.GetUserCollections(user.ID)
	if err != nil {
		c.String(http.StatusInternalServerError, "Error loading collections")
		return
	}
	data := basePage(c)
	data["Collections"] = collections
	c.HTML(http.StatusOK, "collections.html", data)
}

func collectionPageHandler(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		notFoundPage(c)
		return
	}
	collection, pastes, err := collectionService.GetCollection(id, currentUserID(c))
	if err != nil {
		notFoundPage(c)
		return
	}
	data := basePage(c)
	data["Collection"] = collection
	data["Pastes"] = pastes
	user := getCurrentUser(c)
	data["Owner"] = user != nil && user.ID == collection.UserID
	c.HTML(http.StatusOK, "collection.html", data)
}

func createCollectionHandler(c *gin.Context) {
	user := getCurrentUser(c)
	if user == nil {
		failRequest(c, "/login", ErrNotAuthenticated)
		return
	}
	collection, err := collectionService.CreateCollection(user.ID,
		c.PostForm("name"), c.PostForm("description"),
		c.PostForm("visibility") != "private")
	if err != nil {
		failRequest(c, "/collections", err)
		return
	}
	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"id": collection.ID})
		return
	}
	c.Redirect(http.StatusSeeOther, fmt.Sprintf("/collections/%d", collection.ID))
}

func editCollectionHandler(c *gin.Context) {
	user := getCurrentUser(c)
	if user == nil {
		failRequest(c, "/login", ErrNotAuthenticated)
		return
	}
	id, err := parseID(c.Param("id"))
	if err != nil {
		notFoundPage(c)
		return
	}
	err = collectionService.EditCollection(id, user.ID,
		c.PostForm("name"), c.PostForm("description"),
		c.PostForm("visibility") != "private")
	if err != nil {
		failRequest(c, fmt.Sprintf("/collections/%d", id), err)
		return
	}
	c.Redirect(http.StatusSeeOther, fmt.Sprintf("/collections/%d", id))
}

func deleteCollectionHandler(c *gin.Context) {
	user := getCurrentUser(c)
	if user == nil {
		failRequest(c, "/login", ErrNotAuthenticated)
		return
	}
	id, err := parseID(c.Param("id"))
	if err != nil {
		notFoundPage(c)
		return
	}
	if err := collectionService.DeleteCollection(id, user.ID); err != nil {
		failRequest(c, "/collections", err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/collections")
}

func addToCollectionHandler(c *gin.Context) {
	user := getCurrentUser(c)
	if user == nil {
		failRequest(c, "/login", ErrNotAuthenticated)
		return
	}
	collectionID, err := parseID(c.Param("id"))
	if err != nil {
		notFoundPage(c)
		return
	}
	pasteID, err := parseID(c.PostForm("paste_id"))
	if err != nil {
		failRequest(c, fmt.Sprintf("/collections/%d", collectionID), ErrInvalidInput)
		return
	}
	if err := collectionService.AddPaste(collectionID, user.ID, pasteID); err != nil {
		failRequest(c, fmt.Sprintf("/collections/%d", collectionID), err)
		return
	}
	c.Redirect(http.StatusSeeOther, fmt.Sprintf("/collections/%d", collectionID))
}

func removeFromCollectionHandler(c *gin.Context) {
	user := getCurrentUser(c)
	if user == nil {
		failRequest(c, "/login", ErrNotAuthenticated)
		return
	}
	collectionID, err := parseID(c.Param("id"))
	if err != nil {
		notFoundPage(c)
		return
	}
	pasteID, err := parseID(c.PostForm("paste_id"))
	if err != nil {
		failRequest(c, fmt.Sprintf("/collections/%d", collectionID), ErrInvalidInput)
		return
	}
	if err := collectionService.RemovePaste(collectionID, user.ID, pasteID); err != nil {
		failRequest(c, fmt.Sprintf("/collections/%d", collectionID), err)
		return
	}
	c.Redirect(http.StatusSeeOther, fmt.Sprintf("/collections/%d", collectionID))
}
