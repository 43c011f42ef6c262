package db

// Store is the typed access layer over the bot's record nodes. Upserts go
// through MERGE on the record's compound key and a full property SET, so a
// repeated save replaces the node's properties in place.
type Store struct {
	conn *Connection
}

func NewStore(conn *Connection) *Store {
	return &Store{conn: conn}
}

func (s *Store) SaveGiveaway(g Giveaway) error {
	set, err := Set("g", g)
	if err != nil {
		return err
	}
	return s.conn.Transaction(func(write Write) error {
		return write(MergeN("g", Giveaway{Id: g.Id}), set)
	})
}

func (s *Store) FindGiveaway(id string) (Giveaway, bool, error) {
	records, err := s.conn.Query(MatchN("g", Giveaway{Id: id}), Return("g"))
	if err != nil {
		return Giveaway{}, false, err
	}
	g, ok := ParseKey[Giveaway]("g", records)
	return g, ok, nil
}

func (s *Store) RunningGiveaways() ([]Giveaway, error) {
	records, err := s.conn.Query(MatchN("g", Giveaway{Status: GiveawayRunning}), Return("g"))
	if err != nil {
		return nil, err
	}
	giveaways, _ := ParseAll[Giveaway]("g", records)
	return giveaways, nil
}

func (s *Store) AppendHistory(h GiveawayHistory) error {
	return s.conn.Transaction(func(write Write) error {
		return write(CreateN("h", h))
	})
}

func (s *Store) FindPanel(guildId, key string) (PersistentMessage, bool, error) {
	records, err := s.conn.Query(
		MatchN("p", PersistentMessage{GuildId: guildId, Key: key}),
		Return("p"),
	)
	if err != nil {
		return PersistentMessage{}, false, err
	}
	p, ok := ParseKey[PersistentMessage]("p", records)
	return p, ok, nil
}

func (s *Store) SavePanel(p PersistentMessage) error {
	set, err := Set("p", p)
	if err != nil {
		return err
	}
	return s.conn.Transaction(func(write Write) error {
		return write(MergeN("p", PersistentMessage{GuildId: p.GuildId, Key: p.Key}), set)
	})
}

func (s *Store) SaveRadioState(r RadioState) error {
	set, err := Set("r", r)
	if err != nil {
		return err
	}
	return s.conn.Transaction(func(write Write) error {
		return write(MergeN("r", RadioState{GuildId: r.GuildId}), set)
	})
}

func (s *Store) FindRadioState(guildId string) (RadioState, bool, error) {
	records, err := s.conn.Query(MatchN("r", RadioState{GuildId: guildId}), Return("r"))
	if err != nil {
		return RadioState{}, false, err
	}
	r, ok := ParseKey[RadioState]("r", records)
	return r, ok, nil
}

func (s *Store) PlayingRadioStates() ([]RadioState, error) {
	records, err := s.conn.Query(MatchN("r", RadioState{IsPlaying: true}), Return("r"))
	if err != nil {
		return nil, err
	}
	states, _ := ParseAll[RadioState]("r", records)
	return states, nil
}
