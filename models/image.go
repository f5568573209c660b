package models

import "time"

type Image struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	FullURL  string `json:"fullUrl"`
}

type ImageDetails struct {
	Image
	Size     int64     `json:"size"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
}
