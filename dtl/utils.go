package dtl

import (
	log "github.com/sirupsen/logrus"
)

// HandleError interrupts execution when err is not nil.
func HandleError(err error) {
	if err != nil {
		log.Panic(err)
	}
}
