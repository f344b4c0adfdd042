package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Asia/Seoul")
	if err != nil {
		panic(err)
	}
}

// the reservation window opens at a wall-clock time in KST, so all
// date arithmetic has to happen in KST regardless of where the bot
// actually runs (CI runners are usually UTC)
func Now() time.Time {
	return time.Now().In(Location)
}
