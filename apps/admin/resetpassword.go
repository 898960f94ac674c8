package main

func (cli *commandLine) resetPassword(uname string, pwd string) error {
	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(uname)
	if err != nil {
		return err
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	_, err = cli.usrRepo.UpdateUser(usr, nil)
	return err
}
