package inmemdb

import (
	"sync"

	"github.com/trezcool/ripoti/core/feedback"
	"github.com/trezcool/ripoti/core/student"
)

type (
	// DB keeps every table behind one lock so cascading deletes are atomic.
	DB struct {
		sync.RWMutex
		seq uint64

		students    map[string]row[student.Student] // without records
		subjects    map[string]row[student.Subject] // without grades
		grades      map[string]row[student.Grade]
		attendances map[string]row[student.Attendance] // by student ID
		notes       map[string]row[student.BehavioralNote]
		feedback    map[string]row[feedback.Feedback]
	}

	// row keeps the insertion order of a record.
	row[T any] struct {
		seq uint64
		val T
	}
)

func Open() *DB {
	return &DB{
		students:    make(map[string]row[student.Student]),
		subjects:    make(map[string]row[student.Subject]),
		grades:      make(map[string]row[student.Grade]),
		attendances: make(map[string]row[student.Attendance]),
		notes:       make(map[string]row[student.BehavioralNote]),
		feedback:    make(map[string]row[feedback.Feedback]),
	}
}

// next must be called with the write lock held.
func (db *DB) next() uint64 {
	db.seq++
	return db.seq
}

// Reset empties every table.
func (db *DB) Reset() {
	db.Lock()
	defer db.Unlock()
	fresh := Open()
	db.students = fresh.students
	db.subjects = fresh.subjects
	db.grades = fresh.grades
	db.attendances = fresh.attendances
	db.notes = fresh.notes
	db.feedback = fresh.feedback
}
