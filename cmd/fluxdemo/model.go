package main

import "fmt"

// User, Comment and UserComment are the sample records the demos stream.
type User struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	LastName string `json:"last_name"`
}

func (u User) String() string {
	return fmt.Sprintf("User{id=%d, name=%s, lastName=%s}", u.ID, u.Name, u.LastName)
}

type Comment struct {
	Text string `json:"text"`
}

func (c Comment) String() string {
	return fmt.Sprintf("Comment{%s}", c.Text)
}

type UserComment struct {
	User    User    `json:"user"`
	Comment Comment `json:"comment"`
}

func (uc UserComment) String() string {
	return fmt.Sprintf("UserComment{%s, %s}", uc.User, uc.Comment)
}

const (
	lastNameCastro = "Castro"
	lastNameSierra = "Sierra"
)

func sampleUsers() []User {
	return []User{
		{ID: 1, Name: "Gustavo", LastName: lastNameCastro},
		{ID: 2, Name: "Martin", LastName: lastNameCastro},
		{ID: 3, Name: "Maye", LastName: lastNameSierra},
	}
}

func sampleComments() []Comment {
	return []Comment{
		{Text: "This is the first comment"},
		{Text: "This is the second comment"},
	}
}
