// Package member は会員登録・ログインのドメインロジックを提供します。
package member

// Member は会員を表します。ID はデータベースが採番し、以後変更されません。
type Member struct {
	ID               int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name             string `gorm:"column:name" json:"name"`
	PhoneNumber      string `gorm:"column:phone_number" json:"phone_number"`
	Email            string `gorm:"column:email;uniqueIndex:uidx_member_email" json:"email"`
	Password         string `gorm:"column:password" json:"-"` // 平文のまま保存される
	StoreName        string `gorm:"column:store_name" json:"store_name"`
	StoreManagerName string `gorm:"column:store_manger_name" json:"store_manger_name"`
	StoreAddress     string `gorm:"column:store_address" json:"store_address"`
	Region           string `gorm:"column:region" json:"region"`
	OfficeName       string `gorm:"column:office_name" json:"office_name"`
	OfficeNumber     string `gorm:"column:office_number" json:"office_number"`
}

// TableName は gorm のテーブル名を返します。
func (Member) TableName() string {
	return "first_ppt_member"
}
