package domain

type Image struct {
	ID       int64     `db:"id" json:"id"`
	ZillowID string    `db:"zillow_id" json:"zillowId"`
	URL      string    `db:"url" json:"url"`
	Category *Category `db:"category" json:"category"`
}

func (i Image) Labeled() bool {
	return i.Category != nil
}

type CategoryCount struct {
	Category Category `db:"category" json:"category"`
	Count    int      `db:"count" json:"count"`
}
