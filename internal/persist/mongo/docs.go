package mongo

import "github.com/fusiongo/server/internal/persist"

// accountDoc is one document of the accounts collection.
type accountDoc struct {
	ID           int64  `bson:"_id"`
	Login        string `bson:"login"`
	Password     string `bson:"password"`
	Selected     int32  `bson:"selected_slot"`
	AccountLevel int32  `bson:"account_level"`
	Created      int64  `bson:"creation_time"`
	LastLogin    int64  `bson:"last_login_time"`
	BannedUntil  int64  `bson:"banned_until_time"`
	BannedSince  int64  `bson:"banned_since_time"`
	BanReason    string `bson:"ban_reason"`
}

func (d *accountDoc) account() *persist.Account {
	return &persist.Account{
		ID:           d.ID,
		Login:        d.Login,
		Password:     d.Password,
		Selected:     d.Selected,
		AccountLevel: d.AccountLevel,
		Created:      d.Created,
		LastLogin:    d.LastLogin,
		BannedUntil:  d.BannedUntil,
		BannedSince:  d.BannedSince,
		BanReason:    d.BanReason,
	}
}

type appearanceDoc struct {
	Body      int16 `bson:"body"`
	EyeColor  int16 `bson:"eye_color"`
	FaceStyle int16 `bson:"face_style"`
	Gender    int16 `bson:"gender"`
	HairColor int16 `bson:"hair_color"`
	HairStyle int16 `bson:"hair_style"`
	Height    int16 `bson:"height"`
	SkinColor int16 `bson:"skin_color"`
}

func newAppearanceDoc(a persist.Appearance) appearanceDoc {
	return appearanceDoc{
		Body: a.Body, EyeColor: a.EyeColor, FaceStyle: a.FaceStyle, Gender: a.Gender,
		HairColor: a.HairColor, HairStyle: a.HairStyle, Height: a.Height, SkinColor: a.SkinColor,
	}
}

func (d appearanceDoc) appearance() persist.Appearance {
	return persist.Appearance{
		Body: d.Body, EyeColor: d.EyeColor, FaceStyle: d.FaceStyle, Gender: d.Gender,
		HairColor: d.HairColor, HairStyle: d.HairStyle, Height: d.Height, SkinColor: d.SkinColor,
	}
}

type itemDoc struct {
	Slot      int32 `bson:"slot_number"`
	ID        int16 `bson:"id"`
	Type      int16 `bson:"type"`
	Opt       int32 `bson:"opt"`
	TimeLimit int32 `bson:"time_limit"`
}

type nanoDoc struct {
	ID      int16 `bson:"id"`
	Skill   int16 `bson:"skill_id"`
	Stamina int16 `bson:"stamina"`
}

type runningQuestDoc struct {
	TaskID    int32    `bson:"task_id"`
	NPCCounts [3]int32 `bson:"remaining_npc_counts"`
}

// playerDoc is one document of the players collection. Child collections
// are embedded, so a player save or load is a single document operation.
// Appearance is a pointer: a stored document without one is corrupt.
type playerDoc struct {
	ID        int64  `bson:"_id"`
	AccountID int64  `bson:"account_id"`
	Slot      int32  `bson:"slot_number"`
	FirstName string `bson:"first_name"`
	LastName  string `bson:"last_name"`
	NameCheck int32  `bson:"name_check"`
	Created   int64  `bson:"creation_time"`
	LastLogin int64  `bson:"last_login_time"`
	LastSave  int64  `bson:"last_save_time"`

	Level          int16    `bson:"level"`
	EquippedNanos  [3]int16 `bson:"equipped_nano_ids"`
	AppearanceFlag int32    `bson:"appearance_flag"`
	TutorialFlag   int32    `bson:"tutorial_flag"`
	PayZoneFlag    int32    `bson:"payzone_flag"`

	Pos   [3]int32 `bson:"pos"`
	Angle int32    `bson:"angle"`
	HP    int32    `bson:"hp"`

	FusionMatter int32 `bson:"fusion_matter"`
	Taros        int32 `bson:"taros"`
	BatteryW     int32 `bson:"battery_w"`
	BatteryN     int32 `bson:"battery_n"`

	Mentor           int16 `bson:"mentor"`
	CurrentMissionID int32 `bson:"active_mission_id"`
	WarpLocationFlag int32 `bson:"warp_location_flag"`

	SkywayFlags   []byte `bson:"skyway_bytes"`
	FirstUseFlags []byte `bson:"first_use_bytes"`
	QuestFlags    []byte `bson:"quest_bytes"`

	Appearance *appearanceDoc `bson:"style"`

	Nanos         []nanoDoc         `bson:"nanos"`
	Inventory     []itemDoc         `bson:"items"`
	QuestItems    []itemDoc         `bson:"quest_items"`
	RunningQuests []runningQuestDoc `bson:"running_quests"`
}

func newPlayerDoc(p *persist.Player) *playerDoc {
	app := newAppearanceDoc(p.Appearance)
	d := &playerDoc{
		ID:        p.ID,
		AccountID: p.AccountID,
		Slot:      p.Slot,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		NameCheck: p.NameCheck,
		Created:   p.Created,
		LastLogin: p.LastLogin,
		LastSave:  p.LastSave,

		Level:          p.Level,
		EquippedNanos:  p.EquippedNanos,
		AppearanceFlag: p.AppearanceFlag,
		TutorialFlag:   p.TutorialFlag,
		PayZoneFlag:    p.PayZoneFlag,

		Pos:   [3]int32{p.X, p.Y, p.Z},
		Angle: p.Angle,
		HP:    p.HP,

		FusionMatter: p.FusionMatter,
		Taros:        p.Taros,
		BatteryW:     p.BatteryW,
		BatteryN:     p.BatteryN,

		Mentor:           p.Mentor,
		CurrentMissionID: p.CurrentMissionID,
		WarpLocationFlag: p.WarpLocationFlag,

		SkywayFlags:   p.SkywayFlags,
		FirstUseFlags: p.FirstUseFlags,
		QuestFlags:    p.QuestFlags,

		Appearance: &app,

		Nanos:         make([]nanoDoc, 0, len(p.Nanos)),
		Inventory:     make([]itemDoc, 0, len(p.Inventory)),
		QuestItems:    make([]itemDoc, 0, len(p.QuestItems)),
		RunningQuests: make([]runningQuestDoc, 0, len(p.RunningQuests)),
	}
	for _, n := range p.Nanos {
		d.Nanos = append(d.Nanos, nanoDoc{ID: n.ID, Skill: n.Skill, Stamina: n.Stamina})
	}
	for _, it := range p.Inventory {
		d.Inventory = append(d.Inventory, itemDoc(it))
	}
	for _, it := range p.QuestItems {
		d.QuestItems = append(d.QuestItems, itemDoc(it))
	}
	for _, q := range p.RunningQuests {
		d.RunningQuests = append(d.RunningQuests, runningQuestDoc{
			TaskID: q.TaskID, NPCCounts: q.RemainingNPCCount,
		})
	}
	return d
}

func (d *playerDoc) player() *persist.Player {
	p := &persist.Player{
		ID:        d.ID,
		AccountID: d.AccountID,
		Slot:      d.Slot,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		NameCheck: d.NameCheck,
		Created:   d.Created,
		LastLogin: d.LastLogin,
		LastSave:  d.LastSave,

		Level:          d.Level,
		EquippedNanos:  d.EquippedNanos,
		AppearanceFlag: d.AppearanceFlag,
		TutorialFlag:   d.TutorialFlag,
		PayZoneFlag:    d.PayZoneFlag,

		X:     d.Pos[0],
		Y:     d.Pos[1],
		Z:     d.Pos[2],
		Angle: d.Angle,
		HP:    d.HP,

		FusionMatter: d.FusionMatter,
		Taros:        d.Taros,
		BatteryW:     d.BatteryW,
		BatteryN:     d.BatteryN,

		Mentor:           d.Mentor,
		CurrentMissionID: d.CurrentMissionID,
		WarpLocationFlag: d.WarpLocationFlag,

		SkywayFlags:   d.SkywayFlags,
		FirstUseFlags: d.FirstUseFlags,
		QuestFlags:    d.QuestFlags,
	}
	if d.Appearance != nil {
		p.Appearance = d.Appearance.appearance()
	}
	for _, n := range d.Nanos {
		p.Nanos = append(p.Nanos, persist.Nano{ID: n.ID, Skill: n.Skill, Stamina: n.Stamina})
	}
	for _, it := range d.Inventory {
		p.Inventory = append(p.Inventory, persist.Item(it))
	}
	for _, it := range d.QuestItems {
		p.QuestItems = append(p.QuestItems, persist.Item(it))
	}
	for _, q := range d.RunningQuests {
		p.RunningQuests = append(p.RunningQuests, persist.RunningQuest{
			TaskID: q.TaskID, RemainingNPCCount: q.NPCCounts,
		})
	}
	return p
}

func (d *playerDoc) summary() persist.CharacterSummary {
	c := persist.CharacterSummary{
		PlayerID:       d.ID,
		Slot:           d.Slot,
		FirstName:      d.FirstName,
		LastName:       d.LastName,
		NameCheck:      d.NameCheck,
		Level:          d.Level,
		AppearanceFlag: d.AppearanceFlag,
		TutorialFlag:   d.TutorialFlag,
		PayZoneFlag:    d.PayZoneFlag,
		X:              d.Pos[0],
		Y:              d.Pos[1],
		Z:              d.Pos[2],
		HP:             d.HP,
		EquippedNanos:  d.EquippedNanos,
	}
	if d.Appearance != nil {
		c.Appearance = d.Appearance.appearance()
	}
	return c
}

type buddyshipDoc struct {
	PlayerA int64 `bson:"player_a"`
	PlayerB int64 `bson:"player_b"`
}

type blockDoc struct {
	PlayerID  int64 `bson:"player_id"`
	BlockedID int64 `bson:"blocked_id"`
}

type emailDoc struct {
	PlayerID        int64     `bson:"player_id"`
	MsgIndex        int32     `bson:"msg_index"`
	ReadFlag        int32     `bson:"read_flag"`
	ItemFlag        int32     `bson:"item_flag"`
	SenderID        int64     `bson:"sender_id"`
	SenderFirstName string    `bson:"sender_first_name"`
	SenderLastName  string    `bson:"sender_last_name"`
	SubjectLine     string    `bson:"subject"`
	MsgBody         string    `bson:"body"`
	Taros           int32     `bson:"taros"`
	SendTime        int64     `bson:"send_time"`
	DeleteTime      int64     `bson:"delete_time"`
	Items           []itemDoc `bson:"items"`
}

func newEmailDoc(m *persist.EmailMessage) *emailDoc {
	d := &emailDoc{
		PlayerID:        m.PlayerID,
		MsgIndex:        m.MsgIndex,
		ReadFlag:        m.ReadFlag,
		ItemFlag:        m.ItemFlag,
		SenderID:        m.SenderID,
		SenderFirstName: m.SenderFirstName,
		SenderLastName:  m.SenderLastName,
		SubjectLine:     m.SubjectLine,
		MsgBody:         m.MsgBody,
		Taros:           m.Taros,
		SendTime:        m.SendTime,
		DeleteTime:      m.DeleteTime,
		Items:           make([]itemDoc, 0, len(m.Items)),
	}
	for _, it := range m.Items {
		d.Items = append(d.Items, itemDoc(it))
	}
	return d
}

func (d *emailDoc) message(withItems bool) persist.EmailMessage {
	m := persist.EmailMessage{
		PlayerID:        d.PlayerID,
		MsgIndex:        d.MsgIndex,
		ReadFlag:        d.ReadFlag,
		ItemFlag:        d.ItemFlag,
		SenderID:        d.SenderID,
		SenderFirstName: d.SenderFirstName,
		SenderLastName:  d.SenderLastName,
		SubjectLine:     d.SubjectLine,
		MsgBody:         d.MsgBody,
		Taros:           d.Taros,
		SendTime:        d.SendTime,
		DeleteTime:      d.DeleteTime,
	}
	if withItems {
		for _, it := range d.Items {
			m.Items = append(m.Items, persist.Item(it))
		}
	}
	return m
}

type raceResultDoc struct {
	EPID      int32 `bson:"ep_id"`
	PlayerID  int64 `bson:"player_id"`
	Score     int32 `bson:"score"`
	RingCount int32 `bson:"ring_count"`
	Time      int32 `bson:"time"`
	Timestamp int64 `bson:"timestamp"`
}

type redeemedCodeDoc struct {
	PlayerID int64  `bson:"player_id"`
	Code     string `bson:"code"`
}

type metaDoc struct {
	Key   string `bson:"_id"`
	Value int64  `bson:"value"`
}

type counterDoc struct {
	ID  string `bson:"_id"`
	Seq int64  `bson:"seq"`
}
