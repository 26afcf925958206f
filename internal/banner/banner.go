package banner

import "fmt"

const Version = "1.0.0"

func Print() {
	banner := `
    ____            _____ _       __    __
   /  _/___  ____  / ___/(_)___ _/ /_  / /_
   / // __ \/ __ \ \__ \/ / __ '/ __ \/ __/
 _/ // / / / / / /___/ / / /_/ / / / / /_
/___/_/ /_/_/ /_//____/_/\__, /_/ /_/\__/
                        /____/  v%s - Review Sentiment Pipeline
    `
	fmt.Printf(banner, Version)
	fmt.Println("\n------------------------------------------------")
}
